package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpH "github.com/aliskhannn/vc-progress/internal/delivery/http/handlers"
	httpMW "github.com/aliskhannn/vc-progress/internal/delivery/http/middleware"
)

type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	QueryTimeout   time.Duration

	ProgressHandler    *httpH.ProgressHandler
	CertificateHandler *httpH.CertificateHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestID())
	r.Use(httpMW.RequestLogger(cfg.Logger))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	api.Use(httpMW.Timeout(cfg.QueryTimeout))
	{
		// Public certificate verification
		if cfg.CertificateHandler != nil {
			api.GET("/certificates/:code/verify", cfg.CertificateHandler.Verify)
		}

		users := api.Group("/users/:userId")

		// Progress
		if cfg.ProgressHandler != nil {
			users.GET("/progress", cfg.ProgressHandler.ListUserProgress)
			users.GET("/lessons", cfg.ProgressHandler.ListUserLessonProgress)
			users.PUT("/modules/:moduleId/lessons/:lessonId", cfg.ProgressHandler.UpdateLessonProgress)
			users.GET("/modules/:moduleId/lessons/:lessonId", cfg.ProgressHandler.GetLessonProgress)
			users.GET("/modules/:moduleId/progress", cfg.ProgressHandler.GetModuleProgress)
			users.DELETE("/modules/:moduleId/progress", cfg.ProgressHandler.ResetModuleProgress)
		}

		// Certificates
		if cfg.CertificateHandler != nil {
			users.POST("/modules/:moduleId/certificate", cfg.CertificateHandler.Issue)
			users.GET("/modules/:moduleId/certificate", cfg.CertificateHandler.Get)
			users.GET("/certificates", cfg.CertificateHandler.ListForUser)
		}
	}

	return r
}
