// Package samples holds the starter layouts offered when creating a layout
// or applying a template.
package samples

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"layout-builder/internal/domain/layout"
)

var ErrUnknownSample = errors.New("unknown sample layout")

// Sample is a layout stored in its persisted shape.
type Sample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Elements is the value of the elements meta key.
	Elements string `json:"-"`
	// Columns maps column meta keys to block lists.
	Columns map[string]string `json:"-"`
	// Styles is CSS the admin preview applies along with the sample.
	Styles string `json:"-"`
}

// Tree decodes the sample with every section, element and block given a
// fresh ID.
func (s Sample) Tree() (layout.Tree, error) {
	sections, err := layout.DecodeElements([]byte(s.Elements))
	if err != nil {
		return layout.Tree{}, fmt.Errorf("sample %s: %w", s.ID, err)
	}
	tree := layout.Tree{Sections: sections}
	for _, el := range tree.Elements() {
		if !el.HasColumns() {
			continue
		}
		for n := 1; n <= el.ColumnCount(); n++ {
			blocks, err := layout.DecodeBlocks([]byte(s.Columns[layout.ColumnKey(el.ID, n)]))
			if err != nil {
				return layout.Tree{}, fmt.Errorf("sample %s column %s: %w", s.ID, layout.ColumnKey(el.ID, n), err)
			}
			el.SetBlocks(n, blocks)
		}
	}
	return tree.Clone(true), nil
}

type Catalog struct {
	mu      sync.RWMutex
	samples map[string]Sample
}

// NewCatalog returns a catalog holding the built-in samples.
func NewCatalog() *Catalog {
	c := &Catalog{samples: make(map[string]Sample)}
	for _, s := range builtin {
		c.Add(s)
	}
	return c
}

// Add registers or replaces a sample.
func (c *Catalog) Add(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[s.ID] = s
}

func (c *Catalog) Get(id string) (Sample, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.samples[id]
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrUnknownSample, id)
	}
	return s, nil
}

// List returns the samples sorted by name.
func (c *Catalog) List() []Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Sample, 0, len(c.samples))
	for _, s := range c.samples {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var builtin = []Sample{
	{
		ID:   "business-1",
		Name: "Business Homepage",
		Elements: `{
			"section_hero": {
				"element_jumbo": {"type": "jumbotron", "options": {"title": "Welcome to our company", "content": "<p>We build things people like.</p>", "text_align": "center"}, "display": {"bg_type": "color", "bg_color": "#222222", "apply_padding": "1"}}
			},
			"section_main": {
				"element_headline": {"type": "headline", "options": {"text": "What we do", "tag": "h2", "align": "center"}},
				"element_cols": {"type": "columns", "options": {"setup": {"num": "3", "width": "grid_4-grid_4-grid_4"}, "stack": "md"}},
				"element_divider": {"type": "divider", "options": {"type": "shadow"}},
				"element_slogan": {"type": "slogan", "options": {"slogan": "Ready to get started?", "button": "1", "button_text": "Contact us", "button_url": "/contact"}}
			}
		}`,
		Columns: map[string]string{
			"element_cols_col_1": `[{"id": "block_a", "type": "raw", "options": {"text": "<h3>Design</h3><p>Clean layouts.</p>", "format": "html"}}]`,
			"element_cols_col_2": `[{"id": "block_b", "type": "raw", "options": {"text": "<h3>Build</h3><p>Solid code.</p>", "format": "html"}}]`,
			"element_cols_col_3": `[{"id": "block_c", "type": "raw", "options": {"text": "<h3>Support</h3><p>Real people.</p>", "format": "html"}}]`,
		},
		Styles: `#custom-main .element-jumbotron h1 { font-size: 3em; }`,
	},
	{
		ID:   "classic-blog",
		Name: "Classic Blog",
		Elements: `{
			"section_main": {
				"element_content": {"type": "content", "options": {}},
				"element_posts": {"type": "post_list_paginated", "options": {"source": "category", "categories": {"all": "1"}, "posts_per_page": "6"}}
			}
		}`,
		Columns: map[string]string{
			"element_content_col_1": `[{"id": "block_current", "type": "current", "options": {}}]`,
		},
	},
	{
		ID:   "portfolio",
		Name: "Portfolio Showcase",
		Elements: `{
			"section_top": {
				"element_slider": {"type": "simple_slider_popout", "options": {"fx": "fade", "timeout": "5"}, "display": {"popout": "1"}}
			},
			"section_work": {
				"element_grid": {"type": "post_grid_paginated", "options": {"source": "category", "columns": "4", "rows": "3"}},
				"element_cta": {"type": "content", "options": {}}
			}
		}`,
		Columns: map[string]string{
			"element_cta_col_1": `[{"id": "block_cta", "type": "raw", "options": {"text": "Like what you see? Get in touch.", "format": "text"}}]`,
		},
	},
}
