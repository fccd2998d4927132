package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SwitchRequest is the body of POST /session/switch
type SwitchRequest struct {
	Profile string `json:"profile" binding:"required"`
}

// Status reports the active profile and restoration lock
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.host.Status())
}

// Save writes the current layout to the active profile. A refusal during
// a restore is reported with 409.
func (h *Handlers) Save(c *gin.Context) {
	res, err := h.host.Save(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if res.Refused {
		status = http.StatusConflict
	}
	c.JSON(status, res)
}

// Load restores the active profile's layout. The lock stays held on
// success until POST /session/unlock.
func (h *Handlers) Load(c *gin.Context) {
	res, err := h.host.Load(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unlock ends a restoration
func (h *Handlers) Unlock(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"released": h.host.Unlock()})
}

// Switch changes the active profile
func (h *Handlers) Switch(c *gin.Context) {
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.host.Switch(c.Request.Context(), req.Profile)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":      res,
		"preferences": h.host.Preferences(),
	})
}
