package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/migrate"
	"layout-builder/internal/domain/render"
	"layout-builder/internal/infra/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t        *testing.T
	store    *store.MemoryStore
	renderer *render.Renderer
}

func newFixture(t *testing.T) *fixture {
	s := store.NewMemoryStore()
	reg := elements.NewRegistry()
	return &fixture{
		t:        t,
		store:    s,
		renderer: render.New(s, reg, migrate.New(reg, zerolog.Nop()), zerolog.Nop()),
	}
}

// seed stores a current-format layout built by fn.
func (f *fixture) seed(fn func(ctx context.Context, doc *layout.Document)) string {
	f.t.Helper()
	ctx := context.Background()
	l := &layout.Layout{Name: "Home", Slug: layout.NewID("home")}
	require.NoError(f.t, f.store.CreateLayout(ctx, l))
	doc := layout.NewDocument(f.store, l.ID, layout.Tree{})
	fn(ctx, doc)
	require.NoError(f.t, doc.Save(ctx))
	require.NoError(f.t, layout.StampSaved(ctx, f.store, l.ID, layout.PluginVersion, ""))
	return l.ID
}

func (f *fixture) render(req render.Request) string {
	f.t.Helper()
	var buf bytes.Buffer
	require.NoError(f.t, f.renderer.Render(context.Background(), &buf, req))
	return buf.String()
}

func addElement(t *testing.T, doc *layout.Document, sid, typ string, opts layout.Options) *layout.Element {
	t.Helper()
	el, err := doc.Tree.AddElement(sid, typ, opts)
	require.NoError(t, err)
	return el
}

func TestPopoutElementsGetTheirOwnSection(t *testing.T) {
	f := newFixture(t)
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("Main", nil).ID
		addElement(t, doc, sid, "headline", layout.Options{"text": "A"})
		addElement(t, doc, sid, "headline", layout.Options{"text": "B"})
		c := addElement(t, doc, sid, "divider", layout.Options{})
		c.Display = layout.Options{"bg_type": "color", "bg_color": "#ff0000"}
		addElement(t, doc, sid, "headline", layout.Options{"text": "D"})
	})

	out := f.render(render.Request{LayoutID: id})

	assert.Equal(t, 3, strings.Count(out, "<section"))
	assert.Equal(t, 3, strings.Count(out, "</section>"))
	assert.Equal(t, 1, strings.Count(out, `id="section-`), "section id is emitted once")
	assert.Contains(t, out, `class="element-section element-section-2 popout-section has-bg bg-color" style="background-color: #ff0000"`)

	a, b, d := strings.Index(out, ">A<"), strings.Index(out, ">B<"), strings.Index(out, ">D<")
	require.True(t, a >= 0 && b > a && d > b)
	assert.NotContains(t, out[a:b], "<section", "A and B share a section")
}

func TestStoredSectionBoundariesOpenSections(t *testing.T) {
	f := newFixture(t)
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		first := doc.Tree.AddSection("One", nil).ID
		second := doc.Tree.AddSection("Two", layout.Options{"classes": "dark"}).ID
		addElement(t, doc, first, "headline", layout.Options{"text": "A"})
		addElement(t, doc, second, "headline", layout.Options{"text": "B"})
	})

	out := f.render(render.Request{LayoutID: id})

	assert.Equal(t, 2, strings.Count(out, "<section"))
	assert.Contains(t, out, "element-section-2 dark")
}

func TestOnlyFirstPaginatedElementGetsPrimaryQuery(t *testing.T) {
	f := newFixture(t)
	f.renderer.Handle("post_grid_paginated", render.StrategyFunc(func(_ context.Context, w io.Writer, ec *render.Context) error {
		_, err := fmt.Fprintf(w, "[primary=%t page=%d]", ec.Query.Primary, ec.Query.Page)
		return err
	}))
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		addElement(t, doc, sid, "post_grid_paginated", layout.Options{})
		addElement(t, doc, sid, "post_grid_paginated", layout.Options{})
	})

	out := f.render(render.Request{LayoutID: id, Page: 3})

	assert.Equal(t, 1, strings.Count(out, "[primary=true page=3]"))
	assert.Equal(t, 1, strings.Count(out, "[primary=false page=0]"))
	assert.Less(t, strings.Index(out, "[primary=true"), strings.Index(out, "[primary=false"))
	assert.Equal(t, 2, strings.Count(out, " paginated"))
}

func TestUnknownTypesAreSkippedAndNotCounted(t *testing.T) {
	f := newFixture(t)
	type seen struct {
		id             string
		counter, total int
	}
	var events []seen
	f.renderer.After.Add(func(_ context.Context, e *render.ElementEvent) {
		events = append(events, seen{e.Element.ID, e.Counter, e.Total})
	})

	var first, last string
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		first = addElement(t, doc, sid, "headline", layout.Options{"text": "one"}).ID
		addElement(t, doc, sid, "retired_widget", layout.Options{})
		last = addElement(t, doc, sid, "headline", layout.Options{"text": "two"}).ID
	})

	out := f.render(render.Request{LayoutID: id})

	assert.Equal(t, []seen{{first, 1, 2}, {last, 2, 2}}, events)
	assert.NotContains(t, out, "retired_widget")
	assert.Contains(t, out, `class="element element-1 element-headline first-element"`)
	assert.Contains(t, out, `class="element element-2 element-headline last-element"`)
}

func TestRegisteredTypeWithoutStrategyShowsNotice(t *testing.T) {
	f := newFixture(t)
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		addElement(t, doc, sid, "map", layout.Options{})
	})

	out := f.render(render.Request{LayoutID: id})

	assert.Contains(t, out, "not-supported")
	assert.Contains(t, out, "&#34;map&#34; element is not supported")
	assert.Contains(t, out, `<div class="clear"></div>`)
}

func TestInvalidLayoutShowsSingleNotice(t *testing.T) {
	f := newFixture(t)
	empty := f.seed(func(_ context.Context, doc *layout.Document) { doc.Tree.AddSection("", nil) })

	for name, id := range map[string]string{"missing": "no-such-layout", "blank": "", "empty": empty} {
		t.Run(name, func(t *testing.T) {
			out := f.render(render.Request{LayoutID: id})
			assert.Equal(t, 1, strings.Count(out, "invalid-layout"))
			assert.NotContains(t, out, "<section")
		})
	}
}

func TestElementLifecycleOrder(t *testing.T) {
	f := newFixture(t)
	mark := func(s string) func(context.Context, *render.ElementEvent) {
		return func(_ context.Context, e *render.ElementEvent) { io.WriteString(e.W, s) }
	}
	f.renderer.Before.Add(mark("{before}"))
	f.renderer.Top.Add(mark("{top}"))
	f.renderer.Bottom.Add(mark("{bottom}"))
	f.renderer.After.Add(mark("{after}"))
	f.renderer.ElementClasses.Add(func(_ context.Context, e *render.ElementEvent) *render.ElementEvent {
		e.Classes = append(e.Classes, "filtered")
		return e
	})

	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		addElement(t, doc, sid, "html", layout.Options{"html": "<b>body</b>"})
	})

	out := f.render(render.Request{LayoutID: id})

	order := []string{"{before}", `<div id="element_`, "filtered", "{top}", "<b>body</b>", `<div class="clear"></div>`, "{bottom}", "<!-- .element (end) -->", "{after}"}
	pos := -1
	for _, marker := range order {
		i := strings.Index(out, marker)
		require.Greater(t, i, pos, "%s out of order in %s", marker, out)
		pos = i
	}
}

type pages map[string]string

func (p pages) PageContent(_ context.Context, id string) (string, error) {
	c, ok := p[id]
	if !ok {
		return "", fmt.Errorf("no page %s", id)
	}
	return c, nil
}

func TestContentBlocks(t *testing.T) {
	f := newFixture(t)
	f.renderer.Pages = pages{"42": "<p>About us</p>"}

	id := f.seed(func(ctx context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		cols := addElement(t, doc, sid, "columns", layout.Options{"setup": map[string]any{"num": "2", "width": "grid_4-grid_8"}})
		colsID := cols.ID
		content := addElement(t, doc, sid, "content", layout.Options{}).ID

		_, err := doc.AddBlock(ctx, colsID, 1, elements.BlockPage, layout.Options{"page_id": float64(42)})
		require.NoError(t, err)
		_, err = doc.AddBlock(ctx, colsID, 2, elements.BlockRaw, layout.Options{"text": "Hi<script>alert(1)</script>", "format": "html"})
		require.NoError(t, err)
		_, err = doc.AddBlock(ctx, content, 1, elements.BlockRaw, layout.Options{"text": "line one\nline <two>\n\nnext", "format": "text"})
		require.NoError(t, err)
		_, err = doc.AddBlock(ctx, content, 1, elements.BlockCurrent, layout.Options{})
		require.NoError(t, err)
	})

	out := f.render(render.Request{LayoutID: id, Post: &render.Post{ID: "7", Content: "<p>Current post</p>"}})

	assert.Contains(t, out, `<div class="col col-1 grid_4">`)
	assert.Contains(t, out, `<div class="col col-2 grid_8">`)
	assert.Contains(t, out, "<p>About us</p>")
	assert.Contains(t, out, "Hi")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>line one<br>line &lt;two&gt;</p><p>next</p>")
	assert.Contains(t, out, "<p>Current post</p>")
}

func TestColumnLoadFailureKeepsMarkupBalanced(t *testing.T) {
	f := newFixture(t)
	var colsID, contentID string
	id := f.seed(func(ctx context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		colsID = addElement(t, doc, sid, "columns", layout.Options{"setup": map[string]any{"num": "3"}}).ID
		contentID = addElement(t, doc, sid, "content", layout.Options{}).ID
		addElement(t, doc, sid, "divider", layout.Options{})

		_, err := doc.AddBlock(ctx, colsID, 1, elements.BlockRaw, layout.Options{"text": "first", "format": "html"})
		require.NoError(t, err)
	})
	ctx := context.Background()
	require.NoError(t, f.store.SetMeta(ctx, id, layout.ColumnKey(colsID, 2), json.RawMessage(`{not json`)))
	require.NoError(t, f.store.SetMeta(ctx, id, layout.ColumnKey(contentID, 1), json.RawMessage(`{not json`)))

	out := f.render(render.Request{LayoutID: id})

	assert.Contains(t, out, "first")
	assert.Equal(t, 2, strings.Count(out, "element-error"))
	assert.Contains(t, out, "element-divider", "later siblings still render")
	assert.Equal(t, strings.Count(out, "<div"), strings.Count(out, "</div>"))
	assert.Equal(t, strings.Count(out, "<section"), strings.Count(out, "</section>"))
}

func TestUnfilteredHTML(t *testing.T) {
	f := newFixture(t)
	f.renderer.Policy = nil
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		sid := doc.Tree.AddSection("", nil).ID
		addElement(t, doc, sid, "html", layout.Options{"html": `<script>track()</script>`})
	})

	assert.Contains(t, f.render(render.Request{LayoutID: id}), `<script>track()</script>`)
}

func TestRenderLocation(t *testing.T) {
	f := newFixture(t)
	var featured string
	id := f.seed(func(_ context.Context, doc *layout.Document) {
		featured = doc.Tree.AddSection("Featured", nil).ID
		main := doc.Tree.AddSection("Main", nil).ID
		addElement(t, doc, featured, "headline", layout.Options{"text": "Top story"})
		addElement(t, doc, main, "headline", layout.Options{"text": "Body"})
	})

	var buf bytes.Buffer
	require.NoError(t, f.renderer.RenderLocation(context.Background(), &buf, id, featured, 1))

	assert.Contains(t, buf.String(), "Top story")
	assert.NotContains(t, buf.String(), "Body")
}

func TestLegacyLayoutIsMigratedBeforeRendering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := &layout.Layout{Name: "Legacy", Slug: "legacy"}
	require.NoError(t, f.store.CreateLayout(ctx, l))
	require.NoError(t, f.store.SetMeta(ctx, l.ID, layout.MetaElements, json.RawMessage(
		`{"primary": {"element_1": {"type": "content", "options": {"source": "raw", "raw_content": "Old words", "raw_format": "html"}}}}`)))

	out := f.render(render.Request{LayoutID: l.ID})

	assert.Contains(t, out, "Old words")
	assert.Contains(t, out, "block-raw")
}
