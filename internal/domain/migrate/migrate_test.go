package migrate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/migrate"
	"layout-builder/internal/infra/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMigrator() *migrate.Migrator {
	return migrate.New(elements.NewRegistry(), zerolog.Nop())
}

func seed(t *testing.T, s *store.MemoryStore, elementsJSON string) string {
	t.Helper()
	ctx := context.Background()
	l := &layout.Layout{Name: "Old", Slug: "old"}
	require.NoError(t, s.CreateLayout(ctx, l))
	require.NoError(t, s.SetMeta(ctx, l.ID, layout.MetaElements, json.RawMessage(elementsJSON)))
	return l.ID
}

func blocksAt(t *testing.T, s *store.MemoryStore, id, key string) []layout.Block {
	t.Helper()
	raw, ok := s.Dump(id)[key]
	require.True(t, ok, "missing %s", key)
	blocks, err := layout.DecodeBlocks(raw)
	require.NoError(t, err)
	return blocks
}

func TestContentElementMigration(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"primary": {"element_1": {"type": "content", "options": {"source": "raw", "raw_content": "Hi", "raw_format": "html", "classes": "x"}}}}`)

	require.NoError(t, newMigrator().Verify(ctx, s, id, migrate.AspectElements))

	blocks := blocksAt(t, s, id, "element_1_col_1")
	require.Len(t, blocks, 1)
	assert.Equal(t, "raw", blocks[0].Type)
	assert.Equal(t, layout.Options{"text": "Hi", "format": "html"}, blocks[0].Options)
	assert.Regexp(t, `^block_`, blocks[0].ID)

	doc, err := layout.Load(ctx, s, id)
	require.NoError(t, err)
	el, _, err := doc.Tree.Find("element_1")
	require.NoError(t, err)
	for _, k := range []string{"source", "raw_content", "raw_format"} {
		assert.NotContains(t, el.Options, k)
	}
	assert.Equal(t, "x", el.Options.String("classes"))

	v, err := layout.ReadVersions(ctx, s, id)
	require.NoError(t, err)
	assert.Equal(t, layout.PluginVersion, v.PluginSaved)
}

func TestColumnsElementMigration(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"primary": {"element_c": {"type": "columns", "options": {
		"setup": {"num": "2", "width": "grid_6-grid_6"},
		"col_1": {"type": "page", "page": 42},
		"col_2": {"type": "current"}
	}}}}`)

	require.NoError(t, newMigrator().Verify(ctx, s, id, migrate.AspectElements))

	col1 := blocksAt(t, s, id, "element_c_col_1")
	require.Len(t, col1, 1)
	assert.Equal(t, "page", col1[0].Type)
	n, ok := col1[0].Options.Int("page_id")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	col2 := blocksAt(t, s, id, "element_c_col_2")
	require.Len(t, col2, 1)
	assert.Equal(t, "current", col2[0].Type)
	assert.NotEqual(t, col1[0].ID, col2[0].ID)

	doc, err := layout.Load(ctx, s, id)
	require.NoError(t, err)
	el, _, err := doc.Tree.Find("element_c")
	require.NoError(t, err)
	assert.NotContains(t, el.Options, "col_1")
	assert.NotContains(t, el.Options, "col_2")
	assert.Equal(t, "2", el.Options.Map("setup").String("num"))
}

func TestMigrationIsGuardedByVersion(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"primary": {
		"element_1": {"type": "content", "options": {"source": "widget", "widget_area": "sidebar-1"}},
		"element_2": {"type": "divider", "options": {"type": "solid"}}
	}}`)
	m := newMigrator()

	require.NoError(t, m.Verify(ctx, s, id, migrate.AspectElements))
	first := s.Dump(id)

	require.NoError(t, m.Verify(ctx, s, id, migrate.AspectElements))
	second := s.Dump(id)

	require.Equal(t, len(first), len(second))
	for k, v := range first {
		assert.True(t, bytes.Equal(v, second[k]), "meta %s changed on second run", k)
	}
}

func TestCurrentLayoutsAreLeftAlone(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"main": {"element_1": {"type": "content", "options": {"source": "raw", "raw_content": "x"}}}}`)
	require.NoError(t, s.SetMeta(ctx, id, layout.MetaPluginVersionSaved, json.RawMessage(`"2.0.0"`)))
	before := s.Dump(id)

	require.NoError(t, newMigrator().Verify(ctx, s, id, migrate.AspectElements))

	assert.Equal(t, before, s.Dump(id))
}

func TestMalformedElementsAreLeftUnconverted(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{
		"featured": {"element_bad": {"type": "content", "options": {"source": "mystery"}}},
		"primary": {
			"element_cols": {"type": "columns", "options": {"setup": {"num": "1"}, "col_1": {"type": "raw", "raw": "ok"}, "col_2": {"type": "page", "page": 3}}},
			"element_odd": "not an element",
			"element_plain": {"type": "headline", "options": {"text": "kept"}, "extra": 7}
		}
	}`)

	require.NoError(t, newMigrator().Verify(ctx, s, id, migrate.AspectElements))
	dump := s.Dump(id)

	_, ok := dump["element_bad_col_1"]
	assert.False(t, ok)
	_, ok = dump["element_cols_col_2"]
	assert.False(t, ok, "column past setup.num is not converted")
	assert.Len(t, blocksAt(t, s, id, "element_cols_col_1"), 1)

	var stored map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(dump[layout.MetaElements], &stored))
	assert.JSONEq(t, `{"type": "content", "options": {"source": "mystery"}}`, string(stored["featured"]["element_bad"]))
	assert.JSONEq(t, `"not an element"`, string(stored["primary"]["element_odd"]))
	assert.JSONEq(t, `{"type": "headline", "options": {"text": "kept"}, "extra": 7}`, string(stored["primary"]["element_plain"]))
	assert.JSONEq(t, `{"type": "page", "page": 3}`, mustJSON(t, mustOptions(t, stored["primary"]["element_cols"])["col_2"]))
}

func TestMigrationKeepsLocationOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"featured": {"element_a": {"type": "divider"}}, "primary": {"element_b": {"type": "divider"}}, "featured_below": {}}`)

	require.NoError(t, newMigrator().Verify(ctx, s, id, migrate.AspectElements))

	doc, err := layout.Load(ctx, s, id)
	require.NoError(t, err)
	var ids []string
	for _, sec := range doc.Tree.Sections {
		ids = append(ids, sec.ID)
	}
	assert.Equal(t, []string{"featured", "primary", "featured_below"}, ids)
}

func TestVerifyHooksAlwaysFire(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{}`)
	m := newMigrator()

	var seen []migrate.Aspect
	m.VerifyElements.Add(func(_ context.Context, e *migrate.VerifyEvent) { seen = append(seen, e.Aspect) })
	m.VerifySettings.Add(func(_ context.Context, e *migrate.VerifyEvent) { seen = append(seen, e.Aspect) })

	_, err := m.Load(ctx, s, id)
	require.NoError(t, err)
	_, err = m.Load(ctx, s, id)
	require.NoError(t, err)

	assert.Equal(t, []migrate.Aspect{"elements", "settings", "elements", "settings"}, seen)
}

func TestExtraStepsRunInThresholdOrderOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{}`)
	require.NoError(t, s.SetMeta(ctx, id, layout.MetaPluginVersionSaved, json.RawMessage(`"2.0.0"`)))

	m := newMigrator()
	var ran []string
	add := func(threshold, name string) {
		m.AddStep(migrate.Step{Aspect: migrate.AspectElements, Threshold: threshold, Name: name,
			Apply: func(context.Context, store.Store, string) error { ran = append(ran, name); return nil }})
	}
	add("2.5.0", "sections")
	add("2.1.0", "early")
	add("1.5.0", "ancient")

	require.NoError(t, m.Verify(ctx, s, id, migrate.AspectElements))
	require.NoError(t, m.Verify(ctx, s, id, migrate.AspectElements))

	assert.Equal(t, []string{"early", "sections"}, ran)
}

func TestFailedStepWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	id := seed(t, s, `{"primary": {"element_1": {"type": "content", "options": {"source": "current"}}}}`)
	before := s.Dump(id)

	m := newMigrator()
	m.AddStep(migrate.Step{Aspect: migrate.AspectElements, Threshold: "2.1.0", Name: "explodes",
		Apply: func(context.Context, store.Store, string) error { return errors.New("boom") }})

	err := m.Verify(ctx, s, id, migrate.AspectElements)
	require.Error(t, err)
	assert.Equal(t, before, s.Dump(id))

	// Load still returns the stored shape.
	doc, err := m.Load(ctx, s, id)
	require.NoError(t, err)
	assert.Len(t, doc.Tree.Elements(), 1)
}

func TestLoadUnknownLayout(t *testing.T) {
	_, err := newMigrator().Load(context.Background(), store.NewMemoryStore(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func mustOptions(t *testing.T, raw json.RawMessage) layout.Options {
	t.Helper()
	var el struct {
		Options layout.Options `json:"options"`
	}
	require.NoError(t, json.Unmarshal(raw, &el))
	return el.Options
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
