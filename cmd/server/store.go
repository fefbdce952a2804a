package main

import (
	"context"

	"github.com/aliskhannn/vc-progress/internal/config"
	httpH "github.com/aliskhannn/vc-progress/internal/delivery/http/handlers"
	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/vc-progress/internal/infra/postgres/repository"
	"github.com/aliskhannn/vc-progress/internal/repository/memory"
	"github.com/aliskhannn/vc-progress/internal/service"
)

type userSeeder interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
}

type moduleSeeder interface {
	Upsert(ctx context.Context, m *entities.Module) error
}

// store bundles the repositories of one storage backend.
type store struct {
	lessons      service.LessonProgressRepository
	progress     service.ModuleProgressRepository
	certificates service.CertificateRepository
	modules      service.ModuleRepository
	users        service.UserRepository
	reset        service.ResetRepository
	tx           service.Transactor

	userSeeder   userSeeder
	moduleSeeder moduleSeeder
	pinger       httpH.Pinger

	close func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.Storage == config.StorageMemory {
		return newMemoryStore(), nil
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	users := pgrepo.NewUserRepository(pool)
	modules := pgrepo.NewModuleRepository(pool)

	return &store{
		lessons:      pgrepo.NewLessonProgressRepository(pool),
		progress:     pgrepo.NewModuleProgressRepository(pool),
		certificates: pgrepo.NewCertificateRepository(pool),
		modules:      modules,
		users:        users,
		reset:        pgrepo.NewResetRepository(pool),
		tx:           postgres.NewTransactor(pool),
		userSeeder:   users,
		moduleSeeder: modules,
		pinger:       postgres.NewPinger(pool),
		close:        pool.Close,
	}, nil
}

func newMemoryStore() *store {
	db := memory.NewDB()
	users := memory.NewUserRepository(db)
	modules := memory.NewModuleRepository(db)

	return &store{
		lessons:      memory.NewLessonProgressRepository(db),
		progress:     memory.NewModuleProgressRepository(db),
		certificates: memory.NewCertificateRepository(db),
		modules:      modules,
		users:        users,
		reset:        memory.NewResetRepository(db),
		tx:           memory.NewTransactor(db),
		userSeeder:   users,
		moduleSeeder: modules,
		close:        func() {},
	}
}
