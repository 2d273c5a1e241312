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
// GET /admin/layouts
// ------------------------------
func (h *Handler) ListLayouts(c *gin.Context) {
	layouts, err := h.store.ListLayouts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load layouts")
		return
	}
	out := ListLayoutsResponse{Layouts: make([]LayoutSummaryDTO, 0, len(layouts))}
	for _, l := range layouts {
		out.Layouts = append(out.Layouts, LayoutSummaryDTO{
			ID:        l.ID,
			Name:      l.Name,
			Slug:      l.Slug,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ------------------------------
// POST /admin/layouts
// ------------------------------
func (h *Handler) CreateLayout(c *gin.Context) {
	var req CreateLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sample != "" && req.Template != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Choose a sample or a template, not both"})
		return
	}
	ctx := c.Request.Context()

	var resp CreateLayoutResponse
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		slug, err := layout.UniqueSlug(ctx, req.Name, "", tx.SlugExists)
		if err != nil {
			return err
		}
		tree, _, err := h.starterTree(ctx, tx, req.Sample, req.Template)
		if err != nil {
			return err
		}

		l := &layout.Layout{Name: req.Name, Slug: slug}
		if err := tx.CreateLayout(ctx, l); err != nil {
			return err
		}
		if err := layout.StampCreated(ctx, tx, l.ID, h.FrameworkVersion); err != nil {
			return err
		}
		if err := layout.NewDocument(tx, l.ID, tree).Save(ctx); err != nil {
			return err
		}
		resp = CreateLayoutResponse{ID: l.ID, Slug: l.Slug}
		return nil
	})
	if err != nil {
		h.fail(c, err, "Failed to create layout")
		return
	}
	respond(c, http.StatusCreated, resp)
}

// ------------------------------
// GET /admin/layouts/:id
// ------------------------------
func (h *Handler) GetLayout(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	s := store.NewCached(h.store)

	l, err := s.GetLayout(ctx, id)
	if err != nil {
		h.fail(c, err, "Failed to load layout")
		return
	}
	doc, err := h.migrator.Load(ctx, s, id)
	if err != nil {
		h.fail(c, err, "Failed to load layout")
		return
	}
	if err := doc.LoadAll(ctx); err != nil {
		h.fail(c, err, "Failed to load layout")
		return
	}
	versions, err := layout.ReadVersions(ctx, s, id)
	if err != nil {
		h.fail(c, err, "Failed to load layout")
		return
	}
	m, err := h.markup.Tree(&doc.Tree)
	if err != nil {
		h.fail(c, err, "Failed to build editor")
		return
	}

	c.JSON(http.StatusOK, LayoutResponse{
		ID:       l.ID,
		Name:     l.Name,
		Slug:     l.Slug,
		Versions: versions,
		Markup:   m,
		Fields:   form.Encode(form.EncodeTree(&doc.Tree)),
	})
}

// ------------------------------
// PUT /admin/layouts/:id  (full form save)
// ------------------------------
func (h *Handler) SaveLayout(c *gin.Context) {
	id := c.Param("id")
	var req SaveLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields, err := parseFields(req.Fields)
	if err != nil {
		h.fail(c, err, "Failed to save layout")
		return
	}
	tree, err := form.Decode(fields)
	if err != nil {
		h.fail(c, errors.Join(errBadRequest, err), "Failed to save layout")
		return
	}
	for _, el := range tree.Elements() {
		if el.Type == "" {
			h.fail(c, fmt.Errorf("%w: element %s has no type", errBadRequest, el.ID), "Failed to save layout")
			return
		}
	}

	ctx := c.Request.Context()
	var resp SaveLayoutResponse
	err = h.store.Transaction(ctx, func(tx store.Store) error {
		l, err := tx.GetLayout(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != "" {
			l.Name = req.Name
		}
		source := req.Slug
		if source == "" {
			source = l.Slug
		}
		if l.Slug, err = layout.UniqueSlug(ctx, source, l.ID, tx.SlugExists); err != nil {
			return err
		}
		if err := tx.UpdateLayout(ctx, l); err != nil {
			return err
		}
		if err := layout.NewDocument(tx, id, tree).Save(ctx); err != nil {
			return err
		}
		if err := layout.StampSaved(ctx, tx, id, layout.PluginVersion, h.FrameworkVersion); err != nil {
			return err
		}
		resp = SaveLayoutResponse{Message: "Layout saved.", Slug: l.Slug}
		return nil
	})
	if err != nil {
		h.fail(c, err, "Failed to save layout")
		return
	}
	h.invalidate(ctx, id)
	respond(c, http.StatusOK, resp)
}

// ------------------------------
// DELETE /admin/layouts/:id
// ------------------------------
func (h *Handler) DeleteLayout(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.store.DeleteLayout(ctx, id); err != nil {
		h.fail(c, err, "Failed to delete layout")
		return
	}
	h.invalidate(ctx, id)
	respond(c, http.StatusOK, StatusResponse{Status: "deleted"})
}
