package http

import (
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// LayoutRequest is the body of PUT /layout/:kind
type LayoutRequest struct {
	Tabs []types.TabAssignment `json:"tabs"`
}

// MountRequest is the body of POST /layout/:kind/mount. Zero tabs
// unmounts the kind.
type MountRequest struct {
	Tabs int `json:"tabs"`
}

// GetLayout returns every mounted kind's tabs
func (h *Handlers) GetLayout(c *gin.Context) {
	view := h.host.View()
	out := make(map[types.Kind][]types.TabAssignment, len(types.Kinds()))
	for _, kind := range types.Kinds() {
		if view.HasKind(kind) {
			out[kind] = view.GetAssignments(kind)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": h.host.ActiveProfile(),
		"layout":  out,
	})
}

// PutLayout replaces one kind's tabs as pushed by the renderer
func (h *Handlers) PutLayout(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.host.View().Replace(kind, req.Tabs); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind": kind,
		"tabs": h.host.View().GetAssignments(kind),
	})
}

// MountKind mounts or unmounts a kind's tab container
func (h *Handlers) MountKind(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	var req MountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view := h.host.View()
	if req.Tabs == 0 {
		view.Unmount(kind)
	} else if err := view.Mount(kind, req.Tabs); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "mounted": view.HasKind(kind)})
}

func parseKind(c *gin.Context) (types.Kind, bool) {
	kind := types.Kind(c.Param("kind"))
	if !kind.Valid() {
		badRequest(c, fmt.Errorf("unknown kind %q", kind))
		return "", false
	}
	return kind, true
}
