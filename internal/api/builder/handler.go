// Package builder serves the admin endpoints the layout editor calls.
//
// Every mutation runs in one store transaction: the layout is loaded (and
// migrated), changed, and saved; any error rolls all of it back and the
// client gets an error instead of the fragment it expects.
package builder

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/form"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/migrate"
	"layout-builder/internal/domain/samples"
	"layout-builder/internal/infra/cache"
	"layout-builder/internal/infra/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	store    store.Store
	registry *elements.Registry
	migrator *migrate.Migrator
	samples  *samples.Catalog
	cache    cache.RenderCache
	markup   markup
	log      zerolog.Logger

	// FrameworkVersion is stamped on created and saved layouts.
	FrameworkVersion string
}

func NewHandler(s store.Store, registry *elements.Registry, migrator *migrate.Migrator, catalog *samples.Catalog, rc cache.RenderCache, log zerolog.Logger) *Handler {
	if rc == nil {
		rc = cache.NullCache{}
	}
	return &Handler{
		store:    s,
		registry: registry,
		migrator: migrator,
		samples:  catalog,
		cache:    rc,
		markup:   markup{registry: registry},
		log:      log,
	}
}

// respond writes v as JSON, or as the delimited legacy text when the client
// asks for ?wire=legacy.
func respond(c *gin.Context, status int, v any) {
	if lr, ok := v.(legacyResponse); ok && c.Query("wire") == "legacy" {
		c.String(status, strings.Join(lr.Legacy(), LegacySeparator))
		return
	}
	c.JSON(status, v)
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, layout.ErrSectionNotFound),
		errors.Is(err, layout.ErrElementNotFound),
		errors.Is(err, layout.ErrBlockNotFound),
		errors.Is(err, samples.ErrUnknownSample):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, layout.ErrColumnOutOfRange),
		errors.Is(err, layout.ErrNotColumnar),
		errors.Is(err, elements.ErrUnknownType),
		errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Str("layout_id", c.Param("id")).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// mutate loads a layout inside a transaction, applies fn, saves, and drops
// the layout's rendered output from the cache once committed.
func (h *Handler) mutate(ctx context.Context, layoutID string, fn func(tx store.Store, doc *layout.Document) error) error {
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		doc, err := h.migrator.Load(ctx, tx, layoutID)
		if err != nil {
			return err
		}
		if err := fn(tx, doc); err != nil {
			return err
		}
		return doc.Save(ctx)
	})
	if err != nil {
		return err
	}
	h.invalidate(ctx, layoutID)
	return nil
}

func (h *Handler) invalidate(ctx context.Context, layoutID string) {
	if err := h.cache.Invalidate(ctx, layoutID); err != nil {
		h.log.Warn().Err(err).Str("layout_id", layoutID).Msg("render cache invalidation failed")
	}
}

// starterTree builds the tree a new layout or an applied template starts
// with, along with any styles that come with it.
func (h *Handler) starterTree(ctx context.Context, tx store.Store, sample, template string) (layout.Tree, string, error) {
	switch {
	case sample != "":
		s, err := h.samples.Get(sample)
		if err != nil {
			return layout.Tree{}, "", err
		}
		t, err := s.Tree()
		return t, s.Styles, err
	case template != "":
		src, err := h.migrator.Load(ctx, tx, template)
		if err != nil {
			return layout.Tree{}, "", err
		}
		if err := src.LoadAll(ctx); err != nil {
			return layout.Tree{}, "", err
		}
		return src.Tree.Clone(true), "", nil
	default:
		var t layout.Tree
		t.Clear()
		return t, "", nil
	}
}

func parseFields(raw string) ([]form.Field, error) {
	fields, err := form.ParseOrdered(raw)
	if err != nil {
		return nil, errors.Join(errBadRequest, err)
	}
	return fields, nil
}

func position(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
