package entities

import "time"

// ModuleProgressSummary is the aggregate of all unit records of a user for a module.
type ModuleProgressSummary struct {
	LessonsCompleted int  `json:"lessons_completed"`
	QuizzesCompleted int  `json:"quizzes_completed"`
	TotalUnits       int  `json:"total_units"`
	TotalTimeSpent   int  `json:"total_time_spent"`
	PercentComplete  int  `json:"percent_complete"`
	IsCompleted      bool `json:"is_completed"`
}

// ComputeModuleProgress derives the module aggregate from the manifest and the
// user's unit records for that module. It never fails: a module without units
// is complete by definition.
//
// Units are classified by the Kind stored on the record. Records for ids the
// manifest no longer contains contribute their time but not their completion,
// and a unit is counted at most once.
func ComputeModuleProgress(manifest Manifest, records []*LessonProgress) ModuleProgressSummary {
	s := ModuleProgressSummary{
		TotalUnits: manifest.TotalUnits(),
	}

	counted := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}

		s.TotalTimeSpent += r.TimeSpent

		if !r.Completed {
			continue
		}
		if _, ok := manifest.UnitKind(r.LessonID); !ok {
			continue
		}
		if _, dup := counted[r.LessonID]; dup {
			continue
		}
		counted[r.LessonID] = struct{}{}

		if r.IsQuiz() {
			s.QuizzesCompleted++
		} else {
			s.LessonsCompleted++
		}
	}

	if s.TotalUnits == 0 {
		s.PercentComplete = 100
		s.IsCompleted = true
		return s
	}

	s.PercentComplete = percentRoundHalfUp(s.LessonsCompleted+s.QuizzesCompleted, s.TotalUnits)
	s.IsCompleted = s.PercentComplete == 100

	return s
}

// percentRoundHalfUp returns round(100*part/total) with halves rounded up,
// clamped to [0, 100].
func percentRoundHalfUp(part, total int) int {
	if total <= 0 {
		return 100
	}

	pct := (200*part + total) / (2 * total)

	return min(100, max(0, pct))
}

// ModuleProgress is the materialized module-level aggregate for a user.
type ModuleProgress struct {
	UserID             int64      `json:"user_id"`
	ModuleID           int64      `json:"module_id"`
	ProgressPercentage int        `json:"progress_percentage"`
	Completed          bool       `json:"completed"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"` // first time the module reached 100%
	TotalTimeSpent     int        `json:"total_time_spent"`          // seconds
	LessonsCompleted   int        `json:"lessons_completed"`
	QuizzesCompleted   int        `json:"quizzes_completed"`
	LastAccessed       time.Time  `json:"last_accessed"`
}

// NewModuleProgress builds the aggregate row for a freshly computed summary.
func NewModuleProgress(userID, moduleID int64, s ModuleProgressSummary, now time.Time) *ModuleProgress {
	return &ModuleProgress{
		UserID:             userID,
		ModuleID:           moduleID,
		ProgressPercentage: s.PercentComplete,
		Completed:          s.IsCompleted,
		TotalTimeSpent:     s.TotalTimeSpent,
		LessonsCompleted:   s.LessonsCompleted,
		QuizzesCompleted:   s.QuizzesCompleted,
		LastAccessed:       now,
	}
}

// Merge applies a recomputed aggregate on top of the stored row (which may be nil).
// CompletionDate is assigned once, on the first write that reports completion,
// and survives every later recomputation.
func (p *ModuleProgress) Merge(stored *ModuleProgress, now time.Time) *ModuleProgress {
	next := *p
	next.LastAccessed = now
	next.CompletionDate = nil

	switch {
	case stored != nil && stored.CompletionDate != nil:
		t := *stored.CompletionDate
		next.CompletionDate = &t
	case p.Completed:
		t := now
		next.CompletionDate = &t
	}

	return &next
}

// Matches reports whether the stored aggregate already reflects the summary.
func (p *ModuleProgress) Matches(s ModuleProgressSummary) bool {
	return p.ProgressPercentage == s.PercentComplete &&
		p.Completed == s.IsCompleted &&
		p.TotalTimeSpent == s.TotalTimeSpent &&
		p.LessonsCompleted == s.LessonsCompleted &&
		p.QuizzesCompleted == s.QuizzesCompleted
}
