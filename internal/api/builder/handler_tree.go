package builder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"

	"github.com/gin-gonic/gin"
)

// ------------------------------
// POST /admin/layouts/:id/sections
// ------------------------------
func (h *Handler) AddSection(c *gin.Context) {
	var req AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp SectionResponse
	err := h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		s := doc.Tree.AddSection(req.Label, layout.Options{})
		m, err := h.markup.Section(s)
		resp = SectionResponse{SectionID: s.ID, Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to add section")
		return
	}
	respond(c, http.StatusCreated, resp)
}

// ------------------------------
// DELETE /admin/layouts/:id/sections/:sid
// ------------------------------
func (h *Handler) DeleteSection(c *gin.Context) {
	err := h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		_, err := doc.Tree.DeleteSection(c.Param("sid"))
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to delete section")
		return
	}
	respond(c, http.StatusOK, StatusResponse{Status: "deleted"})
}

// ------------------------------
// POST /admin/layouts/:id/sections/:sid/elements
// ------------------------------
func (h *Handler) AddElement(c *gin.Context) {
	var req AddElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defaults, err := h.registry.Defaults(req.Type)
	if err != nil {
		h.fail(c, err, "Failed to add element")
		return
	}
	sid := c.Param("sid")

	var resp ElementResponse
	err = h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		el, err := doc.Tree.AddElement(sid, req.Type, defaults)
		if err != nil {
			return err
		}
		m, err := h.markup.Element(sid, el)
		resp = ElementResponse{ElementID: el.ID, Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to add element")
		return
	}
	respond(c, http.StatusCreated, resp)
}

// ------------------------------
// DELETE /admin/layouts/:id/elements/:eid
// ------------------------------
func (h *Handler) DeleteElement(c *gin.Context) {
	err := h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		_, err := doc.Tree.DeleteElement(c.Param("eid"))
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to delete element")
		return
	}
	respond(c, http.StatusOK, StatusResponse{Status: "deleted"})
}

// ------------------------------
// POST /admin/layouts/:id/elements/:eid/columns/:col/blocks
// ------------------------------
func (h *Handler) AddBlock(c *gin.Context) {
	var req AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	col, err := strconv.Atoi(c.Param("col"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: column %q", errBadRequest, c.Param("col")), "Failed to add block")
		return
	}
	defaults, err := h.registry.BlockDefaults(req.Type)
	if err != nil {
		h.fail(c, err, "Failed to add block")
		return
	}
	eid := c.Param("eid")

	var resp BlockResponse
	err = h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		b, err := doc.AddBlock(c.Request.Context(), eid, col, req.Type, defaults)
		if err != nil {
			return err
		}
		_, sec, err := doc.Tree.Find(eid)
		if err != nil {
			return err
		}
		m, err := h.markup.Block(sec.ID, eid, col, &b)
		resp = BlockResponse{BlockID: b.ID, Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to add block")
		return
	}
	respond(c, http.StatusCreated, resp)
}

// ------------------------------
// DELETE /admin/layouts/:id/elements/:eid/blocks/:bid
// ------------------------------
func (h *Handler) DeleteBlock(c *gin.Context) {
	err := h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		_, err := doc.DeleteBlock(c.Request.Context(), c.Param("eid"), c.Param("bid"))
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to delete block")
		return
	}
	respond(c, http.StatusOK, StatusResponse{Status: "deleted"})
}
