package builder

import (
	"fmt"
	"net/http"

	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"

	"github.com/gin-gonic/gin"
)

// ------------------------------
// POST /admin/layouts/:id/template
// ------------------------------
//
// Replaces the whole tree with a sample or a copy of another layout.
func (h *Handler) ApplyTemplate(c *gin.Context) {
	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.Sample == "") == (req.Template == "") {
		h.fail(c, fmt.Errorf("%w: name exactly one of sample or template", errBadRequest), "Failed to apply template")
		return
	}

	ctx := c.Request.Context()
	var resp TemplateResponse
	err := h.mutate(ctx, c.Param("id"), func(tx store.Store, doc *layout.Document) error {
		tree, styles, err := h.starterTree(ctx, tx, req.Sample, req.Template)
		if err != nil {
			return err
		}
		doc.Tree = tree
		m, err := h.markup.Tree(&doc.Tree)
		resp = TemplateResponse{Markup: m, Styles: styles}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to apply template")
		return
	}
	respond(c, http.StatusOK, resp)
}

// ------------------------------
// POST /admin/layouts/:id/clear
// ------------------------------
func (h *Handler) Clear(c *gin.Context) {
	var resp ClearResponse
	err := h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		doc.Tree.Clear()
		m, err := h.markup.Tree(&doc.Tree)
		resp = ClearResponse{Message: "Layout cleared.", Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to clear layout")
		return
	}
	respond(c, http.StatusOK, resp)
}

// ------------------------------
// GET /admin/elements
// ------------------------------
func (h *Handler) ListCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, CatalogResponse{
		Elements: h.registry.Elements(),
		Blocks:   h.registry.Blocks(),
		Samples:  h.samples.List(),
	})
}
