package entities

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	certificateCodePrefix = "VC"
	certificateSuffixLen  = 4
	base36Alphabet        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// CertificateData is the snapshot taken at issuance. It is never re-derived
// from later progress or module changes.
type CertificateData struct {
	Username       string     `json:"user"`
	ModuleTitle    string     `json:"module"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	TimeSpent      int        `json:"timeSpent"` // seconds
}

// Certificate is a completion certificate issued for a (user, module) pair.
type Certificate struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"user_id"`
	ModuleID int64           `json:"module_id"`
	Code     string          `json:"certificate_code"` // public identifier, immutable
	Data     CertificateData `json:"certificate_data"`
	Verified bool            `json:"verified"`
	IssuedAt time.Time       `json:"issued_at"`
}

// NewCertificate creates a verified certificate ready to be stored.
func NewCertificate(userID, moduleID int64, code string, data CertificateData, now time.Time) *Certificate {
	return &Certificate{
		UserID:   userID,
		ModuleID: moduleID,
		Code:     code,
		Data:     data,
		Verified: true,
		IssuedAt: now,
	}
}

// VerifiedCertificate holds the public facts disclosed by certificate verification.
type VerifiedCertificate struct {
	Code           string     `json:"certificate_code"`
	Username       string     `json:"username"`
	ModuleTitle    string     `json:"module_title"`
	IssuedAt       time.Time  `json:"issued_at"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	TimeSpent      int        `json:"time_spent"`
}

// NewCertificateCode builds a code of the form VC-{user}-{module}-{base36 millis}-{4 random}.
//
// The timestamp gives rough chronological ordering and the random suffix
// lowers the chance of two codes colliding within one millisecond. Uniqueness
// itself is guaranteed by storage constraints, not by this scheme.
func NewCertificateCode(userID, moduleID int64, now time.Time, rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}

	suffix := make([]byte, certificateSuffixLen)
	limit := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rnd, limit)
		if err != nil {
			return "", fmt.Errorf("generate certificate suffix: %w", err)
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}

	code := fmt.Sprintf("%s-%d-%d-%s-%s",
		certificateCodePrefix,
		userID,
		moduleID,
		strconv.FormatInt(now.UnixMilli(), 36),
		suffix,
	)

	return strings.ToUpper(code), nil
}

// NormalizeCertificateCode canonicalizes user-entered codes before lookup.
func NormalizeCertificateCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
