// Package render serves layout markup to the front end.
package render

import (
	"bytes"
	"net/http"
	"strconv"

	dr "layout-builder/internal/domain/render"
	"layout-builder/internal/infra/cache"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	renderer *dr.Renderer
	cache    cache.RenderCache
	log      zerolog.Logger
}

func NewHandler(renderer *dr.Renderer, rc cache.RenderCache, log zerolog.Logger) *Handler {
	if rc == nil {
		rc = cache.NullCache{}
	}
	return &Handler{renderer: renderer, cache: rc, log: log}
}

type PostInput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RenderRequest renders a layout in the context of a post. Output depends
// on the post, so it is never cached.
type RenderRequest struct {
	Location string     `json:"location"`
	Page     int        `json:"page"`
	Post     *PostInput `json:"post" binding:"required"`
}

func page(c *gin.Context) int {
	p, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// ------------------------------
// GET /layouts/:id/render?location=&page=
// ------------------------------
func (h *Handler) Render(c *gin.Context) {
	ctx := c.Request.Context()
	key := cache.Key{LayoutID: c.Param("id"), Location: c.Query("location"), Page: page(c)}

	// The generation is read once, before rendering, so a save that lands
	// mid-render cannot have this markup stored as current.
	cacheable := true
	if pinned, err := h.cache.Pin(ctx, key); err != nil {
		h.log.Warn().Err(err).Str("layout_id", key.LayoutID).Msg("render cache read failed")
		cacheable = false
	} else {
		key = pinned
	}

	if cacheable {
		if markup, ok, err := h.cache.Get(ctx, key); err != nil {
			h.log.Warn().Err(err).Str("layout_id", key.LayoutID).Msg("render cache read failed")
		} else if ok {
			c.Header("X-Render-Cache", "hit")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
			return
		}
	}

	var buf bytes.Buffer
	err := h.renderer.Render(ctx, &buf, dr.Request{LayoutID: key.LayoutID, Location: key.Location, Page: key.Page})
	if err != nil {
		h.log.Error().Err(err).Str("layout_id", key.LayoutID).Msg("render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render layout"})
		return
	}

	if cacheable {
		if err := h.cache.Set(ctx, key, buf.String()); err != nil {
			h.log.Warn().Err(err).Str("layout_id", key.LayoutID).Msg("render cache write failed")
		}
	}
	c.Header("X-Render-Cache", "miss")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ------------------------------
// POST /layouts/:id/render
// ------------------------------
func (h *Handler) RenderForPost(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}

	var buf bytes.Buffer
	err := h.renderer.Render(c.Request.Context(), &buf, dr.Request{
		LayoutID: c.Param("id"),
		Location: req.Location,
		Page:     req.Page,
		Post:     &dr.Post{ID: req.Post.ID, Title: req.Post.Title, Content: req.Post.Content},
	})
	if err != nil {
		h.log.Error().Err(err).Str("layout_id", c.Param("id")).Msg("render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render layout"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
