package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/vc-progress/internal/delivery/http/response"
	"github.com/aliskhannn/vc-progress/internal/domain/entities"
)

type CertificateService interface {
	Issue(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error)
	Get(ctx context.Context, userID, moduleID int64) (*entities.Certificate, error)
	ListForUser(ctx context.Context, userID int64) ([]*entities.Certificate, error)
	Verify(ctx context.Context, code string) (*entities.VerifiedCertificate, error)
}

type CertificateHandler struct {
	svc CertificateService
}

func NewCertificateHandler(svc CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

// POST /api/users/:userId/modules/:moduleId/certificate
func (h *CertificateHandler) Issue(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	cert, err := h.svc.Issue(c.Request.Context(), userID, moduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificateCode": cert.Code,
		"certificate":     cert,
	})
}

// GET /api/users/:userId/modules/:moduleId/certificate
func (h *CertificateHandler) Get(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	cert, err := h.svc.Get(c.Request.Context(), userID, moduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondOK(c, cert)
}

// GET /api/users/:userId/certificates
func (h *CertificateHandler) ListForUser(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	list, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": list})
}

// GET /api/certificates/:code/verify
func (h *CertificateHandler) Verify(c *gin.Context) {
	v, err := h.svc.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":       true,
		"certificate": v,
	})
}
