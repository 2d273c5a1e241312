package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	renderapi "layout-builder/internal/api/render"
	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/migrate"
	dr "layout-builder/internal/domain/render"
	"layout-builder/internal/infra/cache"
	"layout-builder/internal/infra/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, rc cache.RenderCache, configure ...func(*dr.Renderer)) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := store.NewMemoryStore()
	reg := elements.NewRegistry()
	renderer := dr.New(s, reg, migrate.New(reg, zerolog.Nop()), zerolog.Nop())
	for _, fn := range configure {
		fn(renderer)
	}
	h := renderapi.NewHandler(renderer, rc, zerolog.Nop())

	r := gin.New()
	r.GET("/layouts/:id/render", h.Render)
	r.POST("/layouts/:id/render", h.RenderForPost)
	return r, s
}

func seed(t *testing.T, s *store.MemoryStore) string {
	t.Helper()
	ctx := context.Background()
	l := &layout.Layout{Name: "Front", Slug: "front"}
	require.NoError(t, s.CreateLayout(ctx, l))
	require.NoError(t, layout.StampCreated(ctx, s, l.ID, ""))

	var tree layout.Tree
	sid := tree.AddSection("Main", nil).ID
	_, err := tree.AddElement(sid, "divider", layout.Options{"type": "shadow"})
	require.NoError(t, err)
	el, err := tree.AddElement(sid, "content", layout.Options{})
	require.NoError(t, err)
	el.SetBlocks(1, []layout.Block{{ID: "block_1", Type: elements.BlockCurrent, Options: layout.Options{}}})
	require.NoError(t, layout.NewDocument(s, l.ID, tree).Save(ctx))
	return l.ID
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRenderServesHTML(t *testing.T) {
	r, s := setup(t, nil)
	id := seed(t, s)

	w := get(r, "/layouts/"+id+"/render")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "element-divider")
	assert.Contains(t, w.Body.String(), "no-post")
}

func TestRenderMissingLayoutIsANotice(t *testing.T) {
	r, _ := setup(t, nil)

	w := get(r, "/layouts/00000000-0000-0000-0000-000000000000/render")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invalid-layout")
}

func TestRenderUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	rc := cache.NewRedisCache(client, "", time.Minute)

	r, s := setup(t, rc)
	id := seed(t, s)

	first := get(r, "/layouts/"+id+"/render?page=2")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get("X-Render-Cache"))

	second := get(r, "/layouts/"+id+"/render?page=2")
	assert.Equal(t, "hit", second.Header().Get("X-Render-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	require.NoError(t, rc.Invalidate(context.Background(), id))
	third := get(r, "/layouts/"+id+"/render?page=2")
	assert.Equal(t, "miss", third.Header().Get("X-Render-Cache"))
}

func TestRenderDuringInvalidateIsNotServedAsCurrent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	rc := cache.NewRedisCache(client, "", time.Minute)

	renders := 0
	r, s := setup(t, rc, func(renderer *dr.Renderer) {
		renderer.Handle("divider", dr.StrategyFunc(func(ctx context.Context, w io.Writer, ec *dr.Context) error {
			renders++
			if renders == 1 {
				// a save commits while this render is still running
				if err := rc.Invalidate(ctx, ec.Document.LayoutID); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(w, "<hr data-render=%q>", strconv.Itoa(renders))
			return err
		}))
	})
	id := seed(t, s)

	first := get(r, "/layouts/"+id+"/render")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get("X-Render-Cache"))
	assert.Contains(t, first.Body.String(), `data-render="1"`)

	second := get(r, "/layouts/"+id+"/render")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "miss", second.Header().Get("X-Render-Cache"))
	assert.Contains(t, second.Body.String(), `data-render="2"`)

	third := get(r, "/layouts/"+id+"/render")
	assert.Equal(t, "hit", third.Header().Get("X-Render-Cache"))
	assert.Equal(t, second.Body.String(), third.Body.String())
	assert.Equal(t, 2, renders)
}

func TestRenderFallsBackWhenCacheIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	r, s := setup(t, cache.NewRedisCache(client, "", time.Minute))
	id := seed(t, s)
	mr.Close()

	w := get(r, "/layouts/"+id+"/render")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "element-divider")
}

func TestRenderForPost(t *testing.T) {
	r, s := setup(t, nil)
	id := seed(t, s)

	body, err := json.Marshal(gin.H{"post": gin.H{"id": "7", "content": "<p>Post body</p><script>x()</script>"}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/layouts/"+id+"/render", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "<p>Post body</p>")
	assert.NotContains(t, w.Body.String(), "<script>")
}
