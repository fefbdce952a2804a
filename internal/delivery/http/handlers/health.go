package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/vc-progress/internal/delivery/http/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger // nil for the in-memory store
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			response.RespondError(c, http.StatusServiceUnavailable, CodeStorageUnavailable, err)
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
