package entities

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidManifest is returned when a module definition cannot be used for progress tracking.
var ErrInvalidManifest = errors.New("invalid module manifest")

// UnitKind discriminates the two kinds of trackable units inside a module.
type UnitKind string

const (
	UnitLesson UnitKind = "lesson" // reading/video/interactive lesson
	UnitQuiz   UnitKind = "quiz"   // scored quiz
)

// Valid reports whether k is a known unit kind.
func (k UnitKind) Valid() bool {
	return k == UnitLesson || k == UnitQuiz
}

// Lesson is a lesson node of a module manifest.
type Lesson struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Order int    `json:"order"`
}

// Quiz is a quiz node of a module manifest.
type Quiz struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	AfterLessonID string `json:"afterLessonId,omitempty"` // ordering key, the lesson this quiz follows
	PassingScore  int    `json:"passingScore"`
}

// Manifest is the ordered list of units a user has to finish to complete a module.
type Manifest struct {
	Lessons []Lesson `json:"lessons"`
	Quizzes []Quiz   `json:"quizzes"`
}

// TotalUnits returns the number of trackable units in the manifest.
func (m Manifest) TotalUnits() int {
	return len(m.Lessons) + len(m.Quizzes)
}

// UnitKind resolves a unit id to its kind. The second value is false when
// the id is not part of the manifest.
func (m Manifest) UnitKind(unitID string) (UnitKind, bool) {
	for _, l := range m.Lessons {
		if l.ID == unitID {
			return UnitLesson, true
		}
	}
	for _, q := range m.Quizzes {
		if q.ID == unitID {
			return UnitQuiz, true
		}
	}
	return "", false
}

// Validate checks that unit ids are present and unique and that passing scores are percentages.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, m.TotalUnits())

	for _, l := range m.Lessons {
		if l.ID == "" {
			return fmt.Errorf("%w: lesson without id", ErrInvalidManifest)
		}
		if _, ok := seen[l.ID]; ok {
			return fmt.Errorf("%w: duplicate unit id %q", ErrInvalidManifest, l.ID)
		}
		seen[l.ID] = struct{}{}
	}

	for _, q := range m.Quizzes {
		if q.ID == "" {
			return fmt.Errorf("%w: quiz without id", ErrInvalidManifest)
		}
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("%w: duplicate unit id %q", ErrInvalidManifest, q.ID)
		}
		if q.PassingScore < 0 || q.PassingScore > 100 {
			return fmt.Errorf("%w: quiz %q passing score %d out of range", ErrInvalidManifest, q.ID, q.PassingScore)
		}
		seen[q.ID] = struct{}{}
	}

	return nil
}

// Module is a named bundle of units. Modules are owned by the content
// catalog; progress tracking only reads them.
type Module struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Content           Manifest  `json:"content"`
	DifficultyLevel   string    `json:"difficulty_level,omitempty"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty"` // minutes
	CreatedAt         time.Time `json:"created_at"`
}
