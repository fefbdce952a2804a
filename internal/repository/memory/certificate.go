package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
)

type CertificateRepository struct {
	db *DB
}

func NewCertificateRepository(db *DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

func cloneCertificate(c *entities.Certificate) *entities.Certificate {
	out := *c
	out.Data.CompletionDate = copyTime(c.Data.CompletionDate)
	return &out
}

// InsertOrGet stores cert unless the pair already has a certificate, in which
// case the existing one is returned. A pair without unit records of a module
// that has units gets repository.ErrProgressNotFound.
func (r *CertificateRepository) InsertOrGet(_ context.Context, cert *entities.Certificate) (*entities.Certificate, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := pairKey{cert.UserID, cert.ModuleID}
	if existing, ok := r.db.certificates[key]; ok {
		return cloneCertificate(existing), false, nil
	}

	if err := r.db.checkRefs(cert.UserID, cert.ModuleID); err != nil {
		return nil, false, fmt.Errorf("insert certificate: %w", err)
	}
	if r.db.modules[cert.ModuleID].Content.TotalUnits() > 0 && !r.db.hasLessons(cert.UserID, cert.ModuleID) {
		return nil, false, repository.ErrProgressNotFound
	}
	if _, taken := r.db.codes[cert.Code]; taken {
		return nil, false, repository.ErrDuplicateCertificateCode
	}

	r.db.certSeq++
	stored := cloneCertificate(cert)
	stored.ID = r.db.certSeq
	if stored.IssuedAt.IsZero() {
		stored.IssuedAt = r.db.now()
	}

	r.db.certificates[key] = stored
	r.db.codes[stored.Code] = key

	return cloneCertificate(stored), true, nil
}

func (r *CertificateRepository) Get(_ context.Context, userID, moduleID int64) (*entities.Certificate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.certificates[pairKey{userID, moduleID}]
	if !ok {
		return nil, repository.ErrCertificateNotFound
	}
	return cloneCertificate(c), nil
}

func (r *CertificateRepository) ListByUser(_ context.Context, userID int64) ([]*entities.Certificate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*entities.Certificate, 0)
	for k, c := range r.db.certificates {
		if k.userID == userID {
			out = append(out, cloneCertificate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

// GetVerified returns the public facts of a verified certificate.
// Unknown and unverified codes are indistinguishable.
func (r *CertificateRepository) GetVerified(_ context.Context, code string) (*entities.VerifiedCertificate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	key, ok := r.db.codes[code]
	if !ok {
		return nil, repository.ErrCertificateNotFound
	}
	c := r.db.certificates[key]
	if !c.Verified {
		return nil, repository.ErrCertificateNotFound
	}

	u, uok := r.db.users[c.UserID]
	m, mok := r.db.modules[c.ModuleID]
	if !uok || !mok {
		return nil, repository.ErrCertificateNotFound
	}

	return &entities.VerifiedCertificate{
		Code:           c.Code,
		Username:       u.Username,
		ModuleTitle:    m.Title,
		IssuedAt:       c.IssuedAt,
		CompletionDate: copyTime(c.Data.CompletionDate),
		TimeSpent:      c.Data.TimeSpent,
	}, nil
}
