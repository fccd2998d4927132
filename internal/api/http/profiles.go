package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxImportSize bounds uploaded profile archives
const MaxImportSize = 64 << 20

// CreateProfileRequest is the body of POST /profiles and of a duplicate
type CreateProfileRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListProfiles lists every profile
func (h *Handlers) ListProfiles(c *gin.Context) {
	profiles, err := h.host.ListProfiles(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"active":   h.host.ActiveProfile(),
	})
}

// CreateProfile creates an empty profile
func (h *Handlers) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.host.CreateProfile(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// DeleteProfile removes a profile
func (h *Handlers) DeleteProfile(c *gin.Context) {
	name := c.Param("name")
	if err := h.host.DeleteProfile(c.Request.Context(), name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

// DuplicateProfile copies a profile under a new name
func (h *Handlers) DuplicateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.host.DuplicateProfile(c.Request.Context(), c.Param("name"), req.Name, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetPreferences returns a profile's preferences
func (h *Handlers) GetPreferences(c *gin.Context) {
	prefs, err := h.host.LoadPreferences(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// PutPreferences replaces a profile's preferences
func (h *Handlers) PutPreferences(c *gin.Context) {
	var prefs types.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err)
		return
	}
	if prefs == nil {
		badRequest(c, fmt.Errorf("preferences must be an object"))
		return
	}
	if err := h.host.SavePreferences(c.Request.Context(), c.Param("name"), prefs); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ExportProfile streams a profile archive
func (h *Handlers) ExportProfile(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	// Fail before any bytes are written so errors stay JSON.
	if ok, err := h.host.Profiles().Exists(ctx, name); err != nil {
		h.fail(c, err)
		return
	} else if !ok {
		h.fail(c, fmt.Errorf("%w: profile %q", types.ErrNotFound, name))
		return
	}

	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".tar.zst"))
	c.Status(http.StatusOK)
	manifest, err := h.host.ExportProfile(ctx, name, c.Writer)
	if err != nil {
		h.logger.Error("Export aborted mid-stream", zap.String("profile", name), zap.Error(err))
		_ = c.Error(err)
		return
	}
	h.logger.Info("Profile exported", zap.String("profile", name), zap.Int("files", len(manifest.Files)))
}

// ImportProfile registers an uploaded archive as a new profile. The
// multipart form carries the archive in "archive" and an optional "name".
func (h *Handlers) ImportProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImportSize)
	file, err := c.FormFile("archive")
	if err != nil {
		badRequest(c, err)
		return
	}

	dir, err := os.MkdirTemp("", "cuedeck-import-*")
	if err != nil {
		h.fail(c, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.host.ImportProfile(c.Request.Context(), path, c.PostForm("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
