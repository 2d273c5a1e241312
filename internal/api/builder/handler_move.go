package builder

import (
	"net/http"

	"layout-builder/internal/domain/form"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"

	"github.com/gin-gonic/gin"
)

// ------------------------------
// PUT /admin/layouts/:id/elements/:eid/move
// ------------------------------
//
// When the editor posts the element's fields they come back renamed to the
// new section so the editor can swap them in without reloading.
func (h *Handler) MoveElement(c *gin.Context) {
	var req MoveElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var posted []form.Field
	if req.Fields != "" {
		var err error
		if posted, err = parseFields(req.Fields); err != nil {
			h.fail(c, err, "Failed to move element")
			return
		}
	}

	eid := c.Param("eid")
	ctx := c.Request.Context()
	var resp MoveElementResponse
	err := h.mutate(ctx, c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		from, err := doc.Tree.MoveElement(eid, req.Section, position(req.Position))
		if err != nil {
			return err
		}
		el, _, err := doc.Tree.Find(eid)
		if err != nil {
			return err
		}
		if el.HasColumns() {
			for n := 1; n <= el.ColumnCount(); n++ {
				if _, err := doc.ElementColumn(ctx, el, n); err != nil {
					return err
				}
			}
		}
		m, err := h.markup.Element(req.Section, el)
		if err != nil {
			return err
		}
		resp = MoveElementResponse{ElementID: eid, Markup: m}
		if posted != nil {
			resp.Fields = form.Encode(form.MoveElementFields(posted, eid, from, req.Section))
		} else {
			resp.Fields = form.Encode(form.EncodeElement(req.Section, el))
		}
		return nil
	})
	if err != nil {
		h.fail(c, err, "Failed to move element")
		return
	}
	respond(c, http.StatusOK, resp)
}

// ------------------------------
// PUT /admin/layouts/:id/blocks/:bid/move
// ------------------------------
func (h *Handler) MoveBlock(c *gin.Context) {
	var req MoveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var posted []form.Field
	if req.Fields != "" {
		var err error
		if posted, err = parseFields(req.Fields); err != nil {
			h.fail(c, err, "Failed to move block")
			return
		}
	}

	bid := c.Param("bid")
	ctx := c.Request.Context()
	var resp MoveBlockResponse
	err := h.mutate(ctx, c.Param("id"), func(_ store.Store, doc *layout.Document) error {
		if err := doc.MoveBlock(ctx, req.ElementID, bid, req.FromColumn, req.ToColumn, position(req.Position)); err != nil {
			return err
		}
		b, n, err := doc.FindBlock(ctx, req.ElementID, bid)
		if err != nil {
			return err
		}
		_, sec, err := doc.Tree.Find(req.ElementID)
		if err != nil {
			return err
		}
		m, err := h.markup.Block(sec.ID, req.ElementID, n, &b)
		if err != nil {
			return err
		}
		resp = MoveBlockResponse{BlockID: bid, Markup: m}
		if posted != nil {
			resp.Fields = form.Encode(form.MoveBlockFields(posted, bid, req.FromColumn, req.ToColumn))
		} else {
			resp.Fields = form.Encode(form.EncodeBlock(sec.ID, req.ElementID, n, &b))
		}
		return nil
	})
	if err != nil {
		h.fail(c, err, "Failed to move block")
		return
	}
	respond(c, http.StatusOK, resp)
}
