package builder

import (
	"errors"
	"fmt"
	"net/http"

	"layout-builder/internal/domain/form"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"

	"github.com/gin-gonic/gin"
)

// ------------------------------
// POST /admin/layouts/:id/elements/:eid/duplicate
// ------------------------------
//
// The copy is built from the posted fields rather than the stored element so
// unsaved edits carry over.
func (h *Handler) DuplicateElement(c *gin.Context) {
	var req DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields, err := parseFields(req.Fields)
	if err != nil {
		h.fail(c, err, "Failed to duplicate element")
		return
	}
	posted, err := form.Decode(form.ElementFields(fields, c.Param("eid")))
	if err != nil {
		h.fail(c, errors.Join(errBadRequest, err), "Failed to duplicate element")
		return
	}
	els := posted.Elements()
	if len(els) != 1 {
		h.fail(c, fmt.Errorf("%w: expected the fields of one element, got %d", errBadRequest, len(els)), "Failed to duplicate element")
		return
	}
	src := els[0]
	if !h.registry.IsElement(src.Type) {
		h.fail(c, fmt.Errorf("%w: element type %q", errBadRequest, src.Type), "Failed to duplicate element")
		return
	}

	var resp ElementResponse
	err = h.mutate(c.Request.Context(), c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		sid := posted.Sections[0].ID
		pos := -1
		if _, sec, err := doc.Tree.Find(src.ID); err == nil {
			sid = sec.ID
			for i := range sec.Elements {
				if sec.Elements[i].ID == src.ID {
					pos = i + 1
				}
			}
		}
		el, err := doc.Tree.InsertElement(sid, pos, layout.CloneElement(*src))
		if err != nil {
			return err
		}
		m, err := h.markup.Element(sid, el)
		resp = ElementResponse{ElementID: el.ID, Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to duplicate element")
		return
	}
	respond(c, http.StatusCreated, resp)
}

// ------------------------------
// POST /admin/layouts/:id/blocks/:bid/duplicate
// ------------------------------
func (h *Handler) DuplicateBlock(c *gin.Context) {
	var req DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields, err := parseFields(req.Fields)
	if err != nil {
		h.fail(c, err, "Failed to duplicate block")
		return
	}
	ref, err := form.DecodeBlock(form.BlockFields(fields, c.Param("bid")))
	if err != nil {
		h.fail(c, errors.Join(errBadRequest, err), "Failed to duplicate block")
		return
	}
	if !h.registry.IsBlock(ref.Block.Type) {
		h.fail(c, fmt.Errorf("%w: block type %q", errBadRequest, ref.Block.Type), "Failed to duplicate block")
		return
	}

	ctx := c.Request.Context()
	var resp BlockResponse
	err = h.mutate(ctx, c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		blocks, err := doc.Column(ctx, ref.ElementID, ref.Column)
		if err != nil {
			return err
		}
		pos := -1
		for i := range blocks {
			if blocks[i].ID == ref.Block.ID {
				pos = i + 1
			}
		}
		b := layout.Block{ID: layout.NewID("block"), Type: ref.Block.Type, Options: ref.Block.Options}
		if err := doc.InsertBlock(ctx, ref.ElementID, ref.Column, pos, b); err != nil {
			return err
		}
		_, sec, err := doc.Tree.Find(ref.ElementID)
		if err != nil {
			return err
		}
		m, err := h.markup.Block(sec.ID, ref.ElementID, ref.Column, &b)
		resp = BlockResponse{BlockID: b.ID, Markup: m}
		return err
	})
	if err != nil {
		h.fail(c, err, "Failed to duplicate block")
		return
	}
	respond(c, http.StatusCreated, resp)
}
