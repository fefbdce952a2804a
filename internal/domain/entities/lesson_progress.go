package entities

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidProgressInput is returned for malformed progress writes. Nothing is persisted.
var ErrInvalidProgressInput = errors.New("invalid progress input")

const (
	MinQuizScore = 0
	MaxQuizScore = 100

	// MaxTimeSpent is the largest per-unit time, in seconds, the store accepts.
	MaxTimeSpent = math.MaxInt32
)

// LessonProgress stores the progress of a user for a single unit (lesson or quiz) of a module.
type LessonProgress struct {
	UserID   int64    `json:"user_id"`
	ModuleID int64    `json:"module_id"`
	LessonID string   `json:"lesson_id"` // id of a lesson or quiz node
	Kind     UnitKind `json:"kind"`

	Completed   bool       `json:"completed"`
	TimeSpent   int        `json:"time_spent"`           // seconds, last write wins
	QuizScore   *int       `json:"quiz_score,omitempty"` // 0-100, quiz units only
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewLessonProgress creates a progress write for a single unit.
func NewLessonProgress(
	userID, moduleID int64,
	lessonID string,
	kind UnitKind,
	completed bool,
	timeSpent int,
	quizScore *int,
) *LessonProgress {
	return &LessonProgress{
		UserID:    userID,
		ModuleID:  moduleID,
		LessonID:  lessonID,
		Kind:      kind,
		Completed: completed,
		TimeSpent: timeSpent,
		QuizScore: quizScore,
	}
}

// IsQuiz reports whether the record tracks a quiz unit.
func (p *LessonProgress) IsQuiz() bool {
	return p.Kind == UnitQuiz
}

// Validate rejects writes that must never reach storage.
func (p *LessonProgress) Validate() error {
	switch {
	case p.UserID <= 0:
		return fmt.Errorf("%w: user id must be positive", ErrInvalidProgressInput)
	case p.ModuleID <= 0:
		return fmt.Errorf("%w: module id must be positive", ErrInvalidProgressInput)
	case p.LessonID == "":
		return fmt.Errorf("%w: lesson id is required", ErrInvalidProgressInput)
	case !p.Kind.Valid():
		return fmt.Errorf("%w: unknown unit kind %q", ErrInvalidProgressInput, p.Kind)
	case p.TimeSpent < 0:
		return fmt.Errorf("%w: negative time spent %d", ErrInvalidProgressInput, p.TimeSpent)
	case p.TimeSpent > MaxTimeSpent:
		return fmt.Errorf("%w: time spent %d exceeds %d seconds", ErrInvalidProgressInput, p.TimeSpent, MaxTimeSpent)
	}

	if p.QuizScore != nil && (*p.QuizScore < MinQuizScore || *p.QuizScore > MaxQuizScore) {
		return fmt.Errorf("%w: quiz score %d out of range", ErrInvalidProgressInput, *p.QuizScore)
	}

	// A quiz without a score would be counted as a lesson by older readers and
	// a lesson with a score as a quiz, so the two are kept strictly apart.
	if p.Kind == UnitQuiz && p.QuizScore == nil {
		return fmt.Errorf("%w: quiz %q recorded without score", ErrInvalidProgressInput, p.LessonID)
	}
	if p.Kind == UnitLesson && p.QuizScore != nil {
		return fmt.Errorf("%w: lesson %q recorded with quiz score", ErrInvalidProgressInput, p.LessonID)
	}

	return nil
}

// Merge applies an incoming write on top of the stored record (which may be nil)
// and returns the row that has to be persisted.
//
// Completed, TimeSpent, QuizScore and Kind are replaced. CompletedAt is set
// the first time the unit is written as completed and then never moves again,
// even when a later write reports it as not completed.
func (p *LessonProgress) Merge(stored *LessonProgress, now time.Time) *LessonProgress {
	next := *p
	next.UpdatedAt = now
	next.CompletedAt = nil

	if stored != nil && stored.CompletedAt != nil {
		t := *stored.CompletedAt
		next.CompletedAt = &t
	} else if p.Completed {
		t := now
		next.CompletedAt = &t
	}

	return &next
}
