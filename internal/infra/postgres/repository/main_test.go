package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	poolOnce sync.Once
	testPool *pgxpool.Pool
	poolErr  error
)

// testDB returns a migrated pool with empty tables, skipping the test when
// TEST_POSTGRES_DSN is not set.
func testDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	poolOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			poolErr = errMissingDSN
			return
		}

		ctx := context.Background()
		testPool, poolErr = postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 20})
		if poolErr != nil {
			return
		}
		poolErr = postgres.Migrate(ctx, testPool)
	})

	if errors.Is(poolErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repository integration tests")
	}
	require.NoError(tb, poolErr)

	_, err := testPool.Exec(context.Background(),
		`TRUNCATE certificates, module_progress, lesson_progress, modules, users RESTART IDENTITY CASCADE`)
	require.NoError(tb, err)

	return testPool
}

// seed creates user 1 ("alice") and module 10 with two lessons and a quiz.
func seed(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	ctx := context.Background()

	_, err := NewUserRepository(pool).Save(ctx, &entities.User{ID: 1, Username: "alice"})
	require.NoError(tb, err)

	err = NewModuleRepository(pool).Upsert(ctx, &entities.Module{
		ID:    10,
		Title: "Go basics",
		Content: entities.Manifest{
			Lessons: []entities.Lesson{{ID: "l1", Title: "Intro", Order: 1}, {ID: "l2", Title: "Types", Order: 2}},
			Quizzes: []entities.Quiz{{ID: "q1", Title: "Check", AfterLessonID: "l2", PassingScore: 70}},
		},
	})
	require.NoError(tb, err)
}
