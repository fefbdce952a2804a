package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

const maxCodeAttempts = 3

type CertificateService struct {
	tr           Transactor
	lessons      LessonProgressRepository
	progress     ModuleProgressRepository
	certificates CertificateRepository
	users        UserRepository
	modules      ModuleRepository
	log          *zap.Logger

	now    func() time.Time
	random io.Reader // nil means crypto/rand
}

type CertificateOption func(*CertificateService)

// WithCertificateClock sets the clock used for issue timestamps and codes.
func WithCertificateClock(now func() time.Time) CertificateOption {
	return func(s *CertificateService) { s.now = now }
}

// WithCodeSource sets the random source of the code suffix.
func WithCodeSource(r io.Reader) CertificateOption {
	return func(s *CertificateService) { s.random = r }
}

func NewCertificateService(
	tr Transactor,
	lessons LessonProgressRepository,
	progress ModuleProgressRepository,
	certificates CertificateRepository,
	users UserRepository,
	modules ModuleRepository,
	log *zap.Logger,
	opts ...CertificateOption,
) *CertificateService {
	s := &CertificateService{
		tr:           tr,
		lessons:      lessons,
		progress:     progress,
		certificates: certificates,
		users:        users,
		modules:      modules,
		log:          log.Named("certificate"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue returns the certificate of a completed module, creating it on the
// first call. Repeated and concurrent calls all get the same certificate.
// Completion is derived from the manifest and the unit records, not from the
// stored aggregate.
func (s *CertificateService) Issue(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error) {
	if userID <= 0 || moduleID <= 0 {
		return nil, fmt.Errorf("%w: user and module ids must be positive", entities.ErrInvalidProgressInput)
	}

	module, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrModuleNotFound) {
			return nil, fmt.Errorf("%w: module %d", repository.ErrReference, moduleID)
		}
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		now := s.now()

		code, err := entities.NewCertificateCode(userID, moduleID, now, s.random)
		if err != nil {
			return nil, err
		}

		stored, created, err := s.issue(ctx, userID, module, code, now)
		if errors.Is(err, repository.ErrDuplicateCertificateCode) {
			s.log.Warn("certificate code collision",
				zap.String("code", code),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		if created {
			s.log.Info("certificate issued",
				zap.Int64("user_id", userID),
				zap.Int64("module_id", moduleID),
				zap.String("code", stored.Code),
			)
		}
		return stored, nil
	}

	return nil, fmt.Errorf("issue certificate after %d attempts: %w", maxCodeAttempts, repository.ErrDuplicateCertificateCode)
}

// issue checks completion and stores the certificate in one transaction. The
// unit records stay locked, so a concurrent reset runs entirely before or after.
func (s *CertificateService) issue(
	ctx context.Context,
	userID int64,
	module *entities.Module,
	code string,
	now time.Time,
) (cert *entities.Certificate, created bool, err error) {
	err = s.tr.WithinTx(ctx, func(ctx context.Context) error {
		records, err := s.lessons.ListByModule(ctx, userID, module.ID)
		if err != nil {
			return err
		}

		summary := entities.ComputeModuleProgress(module.Content, records)
		if !summary.IsCompleted {
			return ErrModuleNotCompleted
		}

		existing, err := s.certificates.Get(ctx, userID, module.ID)
		if err == nil {
			cert = existing
			return nil
		}
		if !errors.Is(err, repository.ErrCertificateNotFound) {
			return err
		}

		data, err := s.snapshot(ctx, userID, module, summary, now)
		if err != nil {
			return err
		}

		cert, created, err = s.certificates.InsertOrGet(ctx, entities.NewCertificate(userID, module.ID, code, data, now))
		if errors.Is(err, repository.ErrProgressNotFound) {
			return ErrModuleNotCompleted
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return cert, created, nil
}

// snapshot freezes the facts printed on a certificate. The completion date is
// the aggregate's when one was recorded, otherwise the issue time.
func (s *CertificateService) snapshot(
	ctx context.Context,
	userID int64,
	module *entities.Module,
	summary entities.ModuleProgressSummary,
	now time.Time,
) (entities.CertificateData, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entities.CertificateData{}, fmt.Errorf("%w: user %d", repository.ErrReference, userID)
		}
		return entities.CertificateData{}, fmt.Errorf("load certificate holder: %w", err)
	}

	completedAt := now
	p, err := s.progress.Get(ctx, userID, module.ID)
	switch {
	case err == nil:
		if p.CompletionDate != nil {
			completedAt = *p.CompletionDate
		}
	case !errors.Is(err, repository.ErrModuleProgressNotFound):
		return entities.CertificateData{}, fmt.Errorf("load module progress: %w", err)
	}

	return entities.CertificateData{
		Username:       user.Username,
		ModuleTitle:    module.Title,
		CompletionDate: &completedAt,
		TimeSpent:      summary.TotalTimeSpent,
	}, nil
}

func (s *CertificateService) Get(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error) {
	return s.certificates.Get(ctx, userID, moduleID)
}

func (s *CertificateService) ListForUser(ctx context.Context, userID int64) ([]*entities.Certificate, error) {
	return s.certificates.ListByUser(ctx, userID)
}

// Verify looks up a certificate by its public code. Unknown and unverified
// codes both yield repository.ErrCertificateNotFound.
func (s *CertificateService) Verify(ctx context.Context, code string) (*entities.VerifiedCertificate, error) {
	code = entities.NormalizeCertificateCode(code)
	if code == "" {
		return nil, repository.ErrCertificateNotFound
	}

	return s.certificates.GetVerified(ctx, code)
}
