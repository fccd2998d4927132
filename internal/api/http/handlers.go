package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/app"
	"github.com/GriffinCanCode/CueDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	host    *app.Host
	version string
	started time.Time
	logger  *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(host *app.Host, version string, logger *logging.Logger) *Handlers {
	return &Handlers{
		host:    host,
		version: version,
		started: time.Now(),
		logger:  logger.OrNop().Component("api"),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	profiles := r.Group("/profiles")
	profiles.GET("", h.ListProfiles)
	profiles.POST("", h.CreateProfile)
	profiles.POST("/import", h.ImportProfile)
	profiles.DELETE("/:name", h.DeleteProfile)
	profiles.POST("/:name/duplicate", h.DuplicateProfile)
	profiles.GET("/:name/preferences", h.GetPreferences)
	profiles.PUT("/:name/preferences", h.PutPreferences)
	profiles.GET("/:name/export", h.ExportProfile)

	sess := r.Group("/session")
	sess.GET("/status", h.Status)
	sess.POST("/save", h.Save)
	sess.POST("/load", h.Load)
	sess.POST("/unlock", h.Unlock)
	sess.POST("/switch", h.Switch)

	layout := r.Group("/layout")
	layout.GET("", h.GetLayout)
	layout.PUT("/:kind", h.PutLayout)
	layout.POST("/:kind/mount", h.MountKind)
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	status := h.host.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cuedeck-backend",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"started": status.Started,
		"profile": status.Profile,
	})
}

// errorCode maps a domain error to a status and a stable code
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrRestoreInProgress):
		return http.StatusConflict, "restore_in_progress"
	case errors.Is(err, app.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, types.ErrFormat):
		return http.StatusInternalServerError, "malformed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status, code := errorCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", code),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "bad_request",
	})
}
