// Package memory is an in-process implementation of the progress store.
// It enforces the same keys and references as the SQL schema and is used by
// tests and by the server when no database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

type lessonKey struct {
	userID   int64
	moduleID int64
	lessonID string
}

type pairKey struct {
	userID   int64
	moduleID int64
}

// DB holds every table behind a single lock, so each repository call is atomic.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	users   map[int64]*entities.User
	modules map[int64]*entities.Module

	lessons      map[lessonKey]*entities.LessonProgress
	progress     map[pairKey]*entities.ModuleProgress
	certificates map[pairKey]*entities.Certificate
	codes        map[string]pairKey

	certSeq int64
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source used for stored timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// NewDB creates an empty store.
func NewDB(opts ...Option) *DB {
	db := &DB{
		now:          time.Now,
		users:        make(map[int64]*entities.User),
		modules:      make(map[int64]*entities.Module),
		lessons:      make(map[lessonKey]*entities.LessonProgress),
		progress:     make(map[pairKey]*entities.ModuleProgress),
		certificates: make(map[pairKey]*entities.Certificate),
		codes:        make(map[string]pairKey),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// AddUser registers a user identity.
func (db *DB) AddUser(u entities.User) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now()
	}
	db.users[u.ID] = &u
}

// SetVerified flips the verified flag of a certificate. It reports whether the code exists.
func (db *DB) SetVerified(code string, verified bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	key, ok := db.codes[code]
	if !ok {
		return false
	}
	db.certificates[key].Verified = verified
	return true
}

func (db *DB) hasLessons(userID, moduleID int64) bool {
	for k := range db.lessons {
		if k.userID == userID && k.moduleID == moduleID {
			return true
		}
	}
	return false
}

func (db *DB) checkRefs(userID, moduleID int64) error {
	if _, ok := db.users[userID]; !ok {
		return repository.ErrReference
	}
	if _, ok := db.modules[moduleID]; !ok {
		return repository.ErrReference
	}
	return nil
}

type txKey struct{}

// Transactor runs transactional work on a DB one unit at a time. Writes are
// applied as they happen; there is no rollback on error.
type Transactor struct {
	db *DB
}

func NewTransactor(db *DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx holds the store's transaction lock while fn runs. A nested call
// made with the context passed to fn joins the outer one.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db, ok := ctx.Value(txKey{}).(*DB); ok && db == t.db {
		return fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, t.db))
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
