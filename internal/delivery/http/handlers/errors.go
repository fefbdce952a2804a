package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/vc-progress/internal/delivery/http/response"
	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/repository"
	"github.com/aliskhannn/vc-progress/internal/service"
)

// Error codes of the JSON error envelope.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeModuleNotCompleted = "module_not_completed"
	CodeUnknownReference   = "unknown_reference"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal"
)

var errInternal = errors.New("internal error")

// respondServiceError maps a service error onto a status and error code.
func respondServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, entities.ErrInvalidProgressInput):
		response.RespondError(c, http.StatusBadRequest, CodeInvalidInput, err)
	case errors.Is(err, service.ErrModuleNotCompleted):
		response.RespondError(c, http.StatusConflict, CodeModuleNotCompleted, err)
	case errors.Is(err, repository.ErrReference):
		response.RespondError(c, http.StatusUnprocessableEntity, CodeUnknownReference, repository.ErrReference)
	case repository.IsNotFound(err):
		response.RespondError(c, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, repository.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		response.RespondError(c, http.StatusServiceUnavailable, CodeStorageUnavailable, repository.ErrStorageUnavailable)
	default:
		response.RespondError(c, http.StatusInternalServerError, CodeInternal, errInternal)
	}
}

func invalidInput(c *gin.Context, msg string) {
	response.RespondError(c, http.StatusBadRequest, CodeInvalidInput, errors.New(msg))
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		invalidInput(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func userModuleParams(c *gin.Context) (userID, moduleID int64, ok bool) {
	if userID, ok = idParam(c, "userId"); !ok {
		return 0, 0, false
	}
	if moduleID, ok = idParam(c, "moduleId"); !ok {
		return 0, 0, false
	}
	return userID, moduleID, true
}
