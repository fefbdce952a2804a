package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository/memory"
)

const (
	testUserID   int64 = 1
	testModuleID int64 = 7
)

var codePattern = regexp.MustCompile(`^VC-1-7-[0-9A-Z]+-[0-9A-Z]{4}$`)

// testClock is a settable clock shared by the store and the services.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db    *memory.DB
	clock *testClock
	tx    *memory.Transactor

	lessons  *memory.LessonProgressRepository
	progress *memory.ModuleProgressRepository
	certs    *memory.CertificateRepository
	modules  *memory.ModuleRepository

	progressSvc *ProgressService
	certSvc     *CertificateService
	resetSvc    *ResetService
}

// fiveAndTwo is a module with five lessons and two quizzes.
func fiveAndTwo() *entities.Module {
	return &entities.Module{
		ID:    testModuleID,
		Title: "Concurrency in Go",
		Content: entities.Manifest{
			Lessons: []entities.Lesson{
				{ID: "l1", Order: 1}, {ID: "l2", Order: 2}, {ID: "l3", Order: 3},
				{ID: "l4", Order: 4}, {ID: "l5", Order: 5},
			},
			Quizzes: []entities.Quiz{
				{ID: "q1", AfterLessonID: "l2", PassingScore: 60},
				{ID: "q2", AfterLessonID: "l5", PassingScore: 80},
			},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	db := memory.NewDB(memory.WithClock(clock.Now))
	db.AddUser(entities.User{ID: testUserID, Username: "alice"})

	env := &testEnv{
		db:       db,
		clock:    clock,
		tx:       memory.NewTransactor(db),
		lessons:  memory.NewLessonProgressRepository(db),
		progress: memory.NewModuleProgressRepository(db),
		certs:    memory.NewCertificateRepository(db),
		modules:  memory.NewModuleRepository(db),
	}
	require.NoError(t, env.modules.Upsert(context.Background(), fiveAndTwo()))

	log := zap.NewNop()
	env.progressSvc = NewProgressService(env.tx, env.lessons, env.progress, env.modules, log)
	env.certSvc = NewCertificateService(env.tx, env.lessons, env.progress, env.certs, memory.NewUserRepository(db), env.modules, log,
		WithCertificateClock(clock.Now))
	env.resetSvc = NewResetService(env.tx, memory.NewResetRepository(db), log)

	return env
}

// unitInput is a completed write for one unit of fiveAndTwo, taking 60s.
func unitInput(id string) UpdateLessonInput {
	in := UpdateLessonInput{
		UserID:    testUserID,
		ModuleID:  testModuleID,
		LessonID:  id,
		Completed: true,
		TimeSpent: 60,
	}
	if id[0] == 'q' {
		score := 90
		in.QuizScore = &score
	}
	return in
}

func (e *testEnv) complete(t *testing.T, unitIDs ...string) {
	t.Helper()

	for _, id := range unitIDs {
		_, err := e.progressSvc.UpdateLessonProgress(context.Background(), unitInput(id))
		require.NoError(t, err)
	}
}

// failingProgressRepo fails every aggregate write.
type failingProgressRepo struct {
	ModuleProgressRepository
}

func (failingProgressRepo) Upsert(context.Context, *entities.ModuleProgress) (*entities.ModuleProgress, error) {
	return nil, errors.New("write failed")
}

// resettingLessons runs reset once, right after the next read of a pair's
// unit records, using the caller's context.
type resettingLessons struct {
	LessonProgressRepository
	reset func(ctx context.Context) error
	armed bool
}

func (r *resettingLessons) ListByModule(ctx context.Context, userID, moduleID int64) ([]*entities.LessonProgress, error) {
	records, err := r.LessonProgressRepository.ListByModule(ctx, userID, moduleID)
	if err != nil || !r.armed {
		return records, err
	}
	r.armed = false
	return records, r.reset(ctx)
}

// orphanProgress serves a fixed aggregate from Get and counts DeleteOrphan calls.
type orphanProgress struct {
	ModuleProgressRepository
	orphan  *entities.ModuleProgress
	deletes int
}

func (o *orphanProgress) Get(ctx context.Context, userID, moduleID int64) (*entities.ModuleProgress, error) {
	if o.orphan != nil {
		c := *o.orphan
		return &c, nil
	}
	return o.ModuleProgressRepository.Get(ctx, userID, moduleID)
}

func (o *orphanProgress) DeleteOrphan(ctx context.Context, userID, moduleID int64) (bool, error) {
	o.deletes++
	o.orphan = nil
	return o.ModuleProgressRepository.DeleteOrphan(ctx, userID, moduleID)
}
