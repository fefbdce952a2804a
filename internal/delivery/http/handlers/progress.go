package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/vc-progress/internal/delivery/http/response"
	"github.com/aliskhannn/vc-progress/internal/domain/entities"
	"github.com/aliskhannn/vc-progress/internal/service"
)

type ProgressService interface {
	UpdateLessonProgress(ctx context.Context, in service.UpdateLessonInput) (*entities.LessonProgress, error)
	GetLessonProgress(ctx context.Context, userID, moduleID int64, lessonID string) (*entities.LessonProgress, error)
	GetModuleProgress(ctx context.Context, userID, moduleID int64) (*service.ModuleProgressDetails, error)
	ListUserProgress(ctx context.Context, userID int64) ([]*entities.ModuleProgress, error)
	ListUserLessonProgress(ctx context.Context, userID int64) ([]*entities.LessonProgress, error)
}

type ResetService interface {
	ResetModuleProgress(ctx context.Context, userID, moduleID int64) error
}

type ProgressHandler struct {
	progress ProgressService
	reset    ResetService
}

func NewProgressHandler(progress ProgressService, reset ResetService) *ProgressHandler {
	return &ProgressHandler{progress: progress, reset: reset}
}

type updateLessonRequest struct {
	Completed bool   `json:"completed"`
	TimeSpent int    `json:"timeSpent"`
	QuizScore *int   `json:"quizScore"`
	Kind      string `json:"kind"`
}

// PUT /api/users/:userId/modules/:moduleId/lessons/:lessonId
func (h *ProgressHandler) UpdateLessonProgress(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	var req updateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}

	stored, err := h.progress.UpdateLessonProgress(c.Request.Context(), service.UpdateLessonInput{
		UserID:    userID,
		ModuleID:  moduleID,
		LessonID:  c.Param("lessonId"),
		Kind:      entities.UnitKind(req.Kind),
		Completed: req.Completed,
		TimeSpent: req.TimeSpent,
		QuizScore: req.QuizScore,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondOK(c, stored)
}

// GET /api/users/:userId/modules/:moduleId/lessons/:lessonId
func (h *ProgressHandler) GetLessonProgress(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	p, err := h.progress.GetLessonProgress(c.Request.Context(), userID, moduleID, c.Param("lessonId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondOK(c, p)
}

// GET /api/users/:userId/modules/:moduleId/progress
func (h *ProgressHandler) GetModuleProgress(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	details, err := h.progress.GetModuleProgress(c.Request.Context(), userID, moduleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondOK(c, details)
}

// DELETE /api/users/:userId/modules/:moduleId/progress
func (h *ProgressHandler) ResetModuleProgress(c *gin.Context) {
	userID, moduleID, ok := userModuleParams(c)
	if !ok {
		return
	}

	if err := h.reset.ResetModuleProgress(c.Request.Context(), userID, moduleID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "progress reset"})
}

// GET /api/users/:userId/progress
func (h *ProgressHandler) ListUserProgress(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	list, err := h.progress.ListUserProgress(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": list})
}

// GET /api/users/:userId/lessons
func (h *ProgressHandler) ListUserLessonProgress(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	list, err := h.progress.ListUserLessonProgress(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lessons": list})
}
