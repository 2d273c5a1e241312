package layout_test

import (
	"context"
	"encoding/json"
	"testing"

	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 0, layout.CompareVersions("2.0", "2.0.0"))
	assert.Equal(t, -1, layout.CompareVersions("1.1.3", "2.0.0"))
	assert.Equal(t, 1, layout.CompareVersions("2.7.0", "v2.0.0"))
	assert.Equal(t, -1, layout.CompareVersions("garbage", "1.0.0"))
}

func TestReadVersionsDefaults(t *testing.T) {
	v, err := layout.ReadVersions(context.Background(), store.NewMemoryStore(), "L")
	require.NoError(t, err)
	assert.Equal(t, layout.DefaultSavedVersion, v.PluginSaved)
	assert.Empty(t, v.PluginCreated)
}

func TestStampSavedNeverLowers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, layout.StampCreated(ctx, s, "L", "2.5.0"))
	require.NoError(t, layout.StampSaved(ctx, s, "L", "9.0.0", "3.0.0"))
	require.NoError(t, layout.StampSaved(ctx, s, "L", layout.PluginVersion, "2.5.0"))

	v, err := layout.ReadVersions(ctx, s, "L")
	require.NoError(t, err)
	assert.Equal(t, "9.0.0", v.PluginSaved)
	assert.Equal(t, "3.0.0", v.FrameworkSaved)
	assert.Equal(t, layout.PluginVersion, v.PluginCreated)
	assert.Equal(t, "2.5.0", v.FrameworkCreated)
}

func TestReadVersionsBareNumber(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.SetMeta(ctx, "L", layout.MetaPluginVersionSaved, json.RawMessage(`2.0`)))

	v, err := layout.ReadVersions(ctx, s, "L")
	require.NoError(t, err)
	assert.Equal(t, "2.0", v.PluginSaved)
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"home": true, "home-2": true}
	slug, err := layout.UniqueSlug(context.Background(), "Home", "", func(_ context.Context, s, _ string) (bool, error) {
		return taken[s], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "home-3", slug)

	assert.Equal(t, "home-page-v2", layout.MakeSlug("Home Page (v2)"))
	assert.Equal(t, "layout", layout.MakeSlug("  !!! "))
}
