package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonProgress_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       *LessonProgress
		wantErr bool
	}{
		{"lesson ok", NewLessonProgress(1, 2, "l1", UnitLesson, true, 30, nil), false},
		{"quiz ok", NewLessonProgress(1, 2, "q1", UnitQuiz, true, 30, intPtr(85)), false},
		{"quiz zero score ok", NewLessonProgress(1, 2, "q1", UnitQuiz, false, 0, intPtr(0)), false},
		{"quiz full score ok", NewLessonProgress(1, 2, "q1", UnitQuiz, true, 0, intPtr(100)), false},
		{"negative time", NewLessonProgress(1, 2, "l1", UnitLesson, true, -1, nil), true},
		{"max time ok", NewLessonProgress(1, 2, "l1", UnitLesson, true, MaxTimeSpent, nil), false},
		{"time above column range", NewLessonProgress(1, 2, "l1", UnitLesson, true, MaxTimeSpent+1, nil), true},
		{"score above range", NewLessonProgress(1, 2, "q1", UnitQuiz, true, 0, intPtr(101)), true},
		{"score below range", NewLessonProgress(1, 2, "q1", UnitQuiz, true, 0, intPtr(-5)), true},
		{"quiz without score", NewLessonProgress(1, 2, "q1", UnitQuiz, true, 0, nil), true},
		{"lesson with score", NewLessonProgress(1, 2, "l1", UnitLesson, true, 0, intPtr(50)), true},
		{"missing lesson id", NewLessonProgress(1, 2, "", UnitLesson, true, 0, nil), true},
		{"unknown kind", NewLessonProgress(1, 2, "l1", UnitKind("video"), true, 0, nil), true},
		{"zero user", NewLessonProgress(0, 2, "l1", UnitLesson, true, 0, nil), true},
		{"zero module", NewLessonProgress(1, 0, "l1", UnitLesson, true, 0, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProgressInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLessonProgress_MergeCompletionTimestamp(t *testing.T) {
	t0 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)

	// Never completed: stays empty.
	started := NewLessonProgress(1, 2, "l1", UnitLesson, false, 10, nil).Merge(nil, t0)
	assert.Nil(t, started.CompletedAt)
	assert.Equal(t, t0, started.UpdatedAt)

	// First completion sets it.
	done := NewLessonProgress(1, 2, "l1", UnitLesson, true, 20, nil).Merge(started, t1)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, t1, *done.CompletedAt)
	assert.Equal(t, 20, done.TimeSpent)

	// Same payload again: unchanged timestamp.
	repeated := NewLessonProgress(1, 2, "l1", UnitLesson, true, 20, nil).Merge(done, t2)
	require.NotNil(t, repeated.CompletedAt)
	assert.Equal(t, t1, *repeated.CompletedAt)

	// Later non-completed write keeps it too.
	undone := NewLessonProgress(1, 2, "l1", UnitLesson, false, 5, nil).Merge(repeated, t2)
	assert.False(t, undone.Completed)
	assert.Equal(t, 5, undone.TimeSpent)
	require.NotNil(t, undone.CompletedAt)
	assert.Equal(t, t1, *undone.CompletedAt)
	assert.Equal(t, t2, undone.UpdatedAt)
}

func TestLessonProgress_MergeDoesNotAliasStored(t *testing.T) {
	t0 := time.Now()
	stored := NewLessonProgress(1, 2, "l1", UnitLesson, true, 1, nil).Merge(nil, t0)
	next := NewLessonProgress(1, 2, "l1", UnitLesson, true, 2, nil).Merge(stored, t0.Add(time.Minute))

	*next.CompletedAt = next.CompletedAt.Add(time.Hour)
	assert.Equal(t, t0, *stored.CompletedAt)
}
