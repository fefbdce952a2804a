package service

import (
	"context"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
)

// LessonProgressRepository persists unit-level progress. Upsert is keyed by
// (user, module, lesson) and returns the row as stored.
type LessonProgressRepository interface {
	Upsert(ctx context.Context, progress *entities.LessonProgress) (*entities.LessonProgress, error)
	Get(ctx context.Context, userID, moduleID int64, lessonID string) (*entities.LessonProgress, error)
	ListByUser(ctx context.Context, userID int64) ([]*entities.LessonProgress, error)

	// ListByModule returns the unit records of a pair. Called inside
	// Transactor.WithinTx it keeps them locked until the transaction ends,
	// so a concurrent reset runs entirely before or after.
	ListByModule(ctx context.Context, userID, moduleID int64) ([]*entities.LessonProgress, error)
}

// ModuleProgressRepository persists the module-level aggregate. An aggregate
// only exists next to unit records: Upsert returns repository.ErrProgressNotFound
// when the pair has none.
type ModuleProgressRepository interface {
	Upsert(ctx context.Context, progress *entities.ModuleProgress) (*entities.ModuleProgress, error)
	Get(ctx context.Context, userID, moduleID int64) (*entities.ModuleProgress, error)
	ListByUser(ctx context.Context, userID int64) ([]*entities.ModuleProgress, error)

	// DeleteOrphan removes the aggregate of a pair that has no unit records.
	DeleteOrphan(ctx context.Context, userID, moduleID int64) (bool, error)
}

// CertificateRepository persists certificates. InsertOrGet must be atomic:
// when a certificate for the pair already exists it is returned unchanged
// and created is false. It may refuse a pair without unit records with
// repository.ErrProgressNotFound.
type CertificateRepository interface {
	InsertOrGet(ctx context.Context, cert *entities.Certificate) (stored *entities.Certificate, created bool, err error)
	Get(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error)
	ListByUser(ctx context.Context, userID int64) ([]*entities.Certificate, error)
	GetVerified(ctx context.Context, code string) (*entities.VerifiedCertificate, error)
}

// ModuleRepository reads module definitions owned by the content catalog.
type ModuleRepository interface {
	GetByID(ctx context.Context, moduleID int64) (*entities.Module, error)
}

// UserRepository reads user identities owned by authentication.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
}

// ResetRepository removes every progress and certificate row of a (user, module) pair.
type ResetRepository interface {
	ResetModule(ctx context.Context, userID, moduleID int64) error
}

// Transactor runs fn in a single storage transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
