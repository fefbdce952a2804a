package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/infra/postgres"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

const certificateColumns = `
	id, user_id, module_id, certificate_code, certificate_data, verified, issued_at`

// CertificateRepository stores issued certificates.
type CertificateRepository struct {
	db postgres.DBTX
}

func NewCertificateRepository(db postgres.DBTX) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// InsertOrGet inserts cert unless the pair already holds a certificate; in
// that case the stored one is returned and created is false. Concurrent
// callers block on the unique index and all end up reading the same row.
func (r *CertificateRepository) InsertOrGet(ctx context.Context, cert *entities.Certificate) (*entities.Certificate, bool, error) {
	query := `
		INSERT INTO certificates (user_id, module_id, certificate_code, certificate_data, verified, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, module_id) DO NOTHING
		RETURNING ` + certificateColumns

	row := postgres.Conn(ctx, r.db).QueryRow(
		ctx,
		query,
		cert.UserID,
		cert.ModuleID,
		cert.Code,
		cert.Data,
		cert.Verified,
		cert.IssuedAt,
	)

	stored, err := scanCertificate(row)
	switch {
	case err == nil:
		return stored, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := r.Get(ctx, cert.UserID, cert.ModuleID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case postgres.UniqueViolation(err, postgres.ConstraintCertificateCode):
		return nil, false, repository.ErrDuplicateCertificateCode
	default:
		return nil, false, postgres.Classify(fmt.Errorf("insert certificate: %w", err))
	}
}

func (r *CertificateRepository) Get(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE user_id = $1 AND module_id = $2
	`

	c, err := scanCertificate(postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID, moduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCertificateNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("get certificate: %w", err))
	}

	return c, nil
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE user_id = $1
		ORDER BY issued_at DESC, id DESC
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("list certificates: %w", err))
	}
	defer rows.Close()

	out := make([]*entities.Certificate, 0)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(fmt.Errorf("list certificates: %w", err))
	}

	return out, nil
}

// GetVerified looks a certificate up by its public code. Unverified
// certificates are reported as not found.
func (r *CertificateRepository) GetVerified(ctx context.Context, code string) (*entities.VerifiedCertificate, error) {
	query := `
		SELECT c.certificate_code, u.username, m.title, c.issued_at, c.certificate_data
		FROM certificates c
		JOIN users u ON u.id = c.user_id
		JOIN modules m ON m.id = c.module_id
		WHERE c.certificate_code = $1 AND c.verified = TRUE
	`

	var (
		v    entities.VerifiedCertificate
		data entities.CertificateData
	)
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, code).Scan(
		&v.Code,
		&v.Username,
		&v.ModuleTitle,
		&v.IssuedAt,
		&data,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCertificateNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("verify certificate: %w", err))
	}

	v.CompletionDate = data.CompletionDate
	v.TimeSpent = data.TimeSpent

	return &v, nil
}

func scanCertificate(row pgx.Row) (*entities.Certificate, error) {
	var c entities.Certificate

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ModuleID,
		&c.Code,
		&c.Data,
		&c.Verified,
		&c.IssuedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
