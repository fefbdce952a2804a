package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

func TestModuleRepository_GetByID(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()

	m, err := NewModuleRepository(pool).GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", m.Title)
	assert.Equal(t, 3, m.Content.TotalUnits())
	assert.Equal(t, 70, m.Content.Quizzes[0].PassingScore)

	_, err = NewModuleRepository(pool).GetByID(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrModuleNotFound)
}

func TestLessonProgressRepository_Upsert(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	repo := NewLessonProgressRepository(pool)

	first, err := repo.Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, true, 60, nil))
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := repo.Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, false, 90, nil))
	require.NoError(t, err)
	assert.False(t, second.Completed)
	assert.Equal(t, 90, second.TimeSpent)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))

	score := 85
	_, err = repo.Upsert(ctx, entities.NewLessonProgress(1, 10, "q1", entities.UnitQuiz, true, 30, &score))
	require.NoError(t, err)

	list, err := repo.ListByModule(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "l1", list[0].LessonID)
	assert.Equal(t, entities.UnitQuiz, list[1].Kind)
	assert.Equal(t, 85, *list[1].QuizScore)

	_, err = repo.Upsert(ctx, entities.NewLessonProgress(99, 10, "l1", entities.UnitLesson, true, 0, nil))
	assert.ErrorIs(t, err, repository.ErrReference)
}

func TestModuleProgressRepository_KeepsCompletionDate(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	repo := NewModuleProgressRepository(pool)

	_, err := NewLessonProgressRepository(pool).Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, true, 60, nil))
	require.NoError(t, err)

	done := entities.ModuleProgressSummary{PercentComplete: 100, IsCompleted: true, TotalUnits: 3, LessonsCompleted: 2, QuizzesCompleted: 1}
	first, err := repo.Upsert(ctx, entities.NewModuleProgress(1, 10, done, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, first.CompletionDate)

	again, err := repo.Upsert(ctx, entities.NewModuleProgress(1, 10, done, time.Now()))
	require.NoError(t, err)
	assert.True(t, first.CompletionDate.Equal(*again.CompletionDate))

	got, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, got.Matches(done))
}

func TestModuleProgressRepository_RequiresUnitRecords(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	repo := NewModuleProgressRepository(pool)
	lessons := NewLessonProgressRepository(pool)

	summary := entities.ModuleProgressSummary{PercentComplete: 33, TotalUnits: 3, LessonsCompleted: 1, TotalTimeSpent: entities.MaxTimeSpent}
	_, err := repo.Upsert(ctx, entities.NewModuleProgress(1, 10, summary, time.Now()))
	require.ErrorIs(t, err, repository.ErrProgressNotFound)

	_, err = lessons.Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, true, entities.MaxTimeSpent, nil))
	require.NoError(t, err)
	_, err = lessons.Upsert(ctx, entities.NewLessonProgress(1, 10, "l2", entities.UnitLesson, false, entities.MaxTimeSpent, nil))
	require.NoError(t, err)

	summary.TotalTimeSpent = 2 * entities.MaxTimeSpent
	stored, err := repo.Upsert(ctx, entities.NewModuleProgress(1, 10, summary, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 2*entities.MaxTimeSpent, stored.TotalTimeSpent)

	deleted, err := repo.DeleteOrphan(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, deleted, "aggregate with unit records is kept")

	_, err = pool.Exec(ctx, `DELETE FROM lesson_progress WHERE user_id = 1 AND module_id = 10`)
	require.NoError(t, err)

	deleted, err = repo.DeleteOrphan(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, 1, 10)
	assert.ErrorIs(t, err, repository.ErrModuleProgressNotFound)
}

func TestLessonProgressRepository_ListByModuleWithinTx(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	lessons := NewLessonProgressRepository(pool)
	progress := NewModuleProgressRepository(pool)

	_, err := lessons.Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, true, 60, nil))
	require.NoError(t, err)

	tx := postgres.NewTransactor(pool)
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		records, err := lessons.ListByModule(ctx, 1, 10)
		if err != nil {
			return err
		}
		require.Len(t, records, 1)

		summary := entities.ComputeModuleProgress(entities.Manifest{Lessons: []entities.Lesson{{ID: "l1"}}}, records)
		_, err = progress.Upsert(ctx, entities.NewModuleProgress(1, 10, summary, time.Now()))
		return err
	})
	require.NoError(t, err)

	p, err := progress.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Equal(t, 60, p.TotalTimeSpent)
}

func TestCertificateRepository_ConcurrentInsertOrGet(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	repo := NewCertificateRepository(pool)

	const n = 10
	codes := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			cert := entities.NewCertificate(1, 10, fmt.Sprintf("VC-1-10-T-%04d", i), entities.CertificateData{Username: "alice", TimeSpent: 42}, time.Now())
			stored, _, err := repo.InsertOrGet(gctx, cert)
			if err != nil {
				return err
			}
			codes[i] = stored.Code
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, c := range codes {
		assert.Equal(t, codes[0], c)
	}

	list, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 42, list[0].Data.TimeSpent)
	assert.True(t, list[0].Verified)
}

func TestCertificateRepository_DuplicateCodeAndVerify(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()
	repo := NewCertificateRepository(pool)

	_, err := NewUserRepository(pool).Save(ctx, &entities.User{ID: 2, Username: "bob"})
	require.NoError(t, err)

	_, created, err := repo.InsertOrGet(ctx, entities.NewCertificate(1, 10, "VC-SAME", entities.CertificateData{TimeSpent: 7}, time.Now()))
	require.NoError(t, err)
	require.True(t, created)

	_, _, err = repo.InsertOrGet(ctx, entities.NewCertificate(2, 10, "VC-SAME", entities.CertificateData{}, time.Now()))
	assert.ErrorIs(t, err, repository.ErrDuplicateCertificateCode)

	v, err := repo.GetVerified(ctx, "VC-SAME")
	require.NoError(t, err)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, "Go basics", v.ModuleTitle)
	assert.Equal(t, 7, v.TimeSpent)

	_, err = pool.Exec(ctx, `UPDATE certificates SET verified = FALSE WHERE certificate_code = 'VC-SAME'`)
	require.NoError(t, err)

	_, err = repo.GetVerified(ctx, "VC-SAME")
	assert.ErrorIs(t, err, repository.ErrCertificateNotFound)
}

func TestResetRepository_WithinTx(t *testing.T) {
	pool := testDB(t)
	seed(t, pool)
	ctx := context.Background()

	lessons := NewLessonProgressRepository(pool)
	certs := NewCertificateRepository(pool)

	_, err := lessons.Upsert(ctx, entities.NewLessonProgress(1, 10, "l1", entities.UnitLesson, true, 5, nil))
	require.NoError(t, err)
	_, _, err = certs.InsertOrGet(ctx, entities.NewCertificate(1, 10, "VC-RESET", entities.CertificateData{}, time.Now()))
	require.NoError(t, err)

	tx := postgres.NewTransactor(pool)
	reset := NewResetRepository(pool)

	rollback := fmt.Errorf("abort")
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, reset.ResetModule(ctx, 1, 10))
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	_, err = lessons.Get(ctx, 1, 10, "l1")
	require.NoError(t, err, "rolled back reset must keep rows")

	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
		return reset.ResetModule(ctx, 1, 10)
	}))

	_, err = lessons.Get(ctx, 1, 10, "l1")
	assert.ErrorIs(t, err, repository.ErrProgressNotFound)
	_, err = certs.Get(ctx, 1, 10)
	assert.ErrorIs(t, err, repository.ErrCertificateNotFound)
}
