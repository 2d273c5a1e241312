package samples_test

import (
	"testing"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/samples"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSamplesDecode(t *testing.T) {
	reg := elements.NewRegistry()
	for _, s := range samples.NewCatalog().List() {
		t.Run(s.ID, func(t *testing.T) {
			tree, err := s.Tree()
			require.NoError(t, err)
			require.NotEmpty(t, tree.Elements())
			for _, el := range tree.Elements() {
				assert.True(t, reg.IsElement(el.Type), "%s is registered", el.Type)
				if !el.HasColumns() {
					continue
				}
				for n := 1; n <= el.ColumnCount(); n++ {
					blocks, ok := el.Blocks(n)
					assert.True(t, ok)
					for _, b := range blocks {
						assert.True(t, reg.IsBlock(b.Type))
					}
				}
			}
		})
	}
}

func TestSampleTreesGetFreshIDs(t *testing.T) {
	s, err := samples.NewCatalog().Get("business-1")
	require.NoError(t, err)

	a, err := s.Tree()
	require.NoError(t, err)
	b, err := s.Tree()
	require.NoError(t, err)

	assert.NotEqual(t, a.Sections[0].ID, "section_hero")
	assert.NotEqual(t, a.Sections[0].ID, b.Sections[0].ID)
	assert.Equal(t, "jumbotron", a.Sections[0].Elements[0].Type)

	cols := a.Sections[1].Elements[1]
	blocks, _ := cols.Blocks(2)
	require.Len(t, blocks, 1)
	assert.NotEqual(t, "block_b", blocks[0].ID)
	assert.Equal(t, "<h3>Build</h3><p>Solid code.</p>", blocks[0].Options.String("text"))
}

func TestUnknownSample(t *testing.T) {
	_, err := samples.NewCatalog().Get("nope")
	assert.ErrorIs(t, err, samples.ErrUnknownSample)
}
