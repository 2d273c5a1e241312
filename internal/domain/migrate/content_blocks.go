package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/infra/store"
)

// Option keys the pre-2.0 content element kept its single source in.
var contentSourceKeys = []string{"source", "page_id", "raw_content", "raw_format", "widget_area"}

// Keys of each col_n bag of a pre-2.0 columns element.
var columnSourceKeys = []string{"type", "page", "raw", "raw_format", "sidebar"}

// contentBlocks moves the per-column settings of content and columns
// elements into content block lists stored under {element_id}_col_{n}.
// Everything else in the elements value is copied through byte for byte.
func (m *Migrator) contentBlocks(ctx context.Context, tx store.Store, layoutID string) error {
	raw, err := tx.GetMeta(ctx, layoutID, layout.MetaElements)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	columns := make(map[string][]layout.Block)
	var out bytes.Buffer
	out.WriteByte('{')
	first := true

	err = layout.WalkObject(raw, func(location string, sraw json.RawMessage) error {
		var section bytes.Buffer
		section.WriteByte('{')
		firstEl := true
		err := layout.WalkObject(sraw, func(elementID string, eraw json.RawMessage) error {
			converted, cols, ok := m.convertElement(layoutID, elementID, eraw)
			if ok {
				eraw = converted
				for n, b := range cols {
					columns[layout.ColumnKey(elementID, n)] = []layout.Block{b}
				}
			}
			if !firstEl {
				section.WriteByte(',')
			}
			firstEl = false
			layout.WriteMember(&section, elementID, eraw)
			return nil
		})
		if err != nil {
			// not a map of elements; keep the location as it was
			m.log.Warn().Err(err).Str("layout_id", layoutID).Str("location", location).Msg("unreadable location left unconverted")
			section.Reset()
			section.Write(sraw)
		} else {
			section.WriteByte('}')
		}
		if !first {
			out.WriteByte(',')
		}
		first = false
		layout.WriteMember(&out, location, section.Bytes())
		return nil
	})
	if err != nil {
		m.log.Warn().Err(err).Str("layout_id", layoutID).Msg("unreadable elements value left unconverted")
		return nil
	}
	out.WriteByte('}')

	for key, blocks := range columns {
		val, err := layout.EncodeBlocks(blocks)
		if err != nil {
			return err
		}
		if err := tx.SetMeta(ctx, layoutID, key, val); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return tx.SetMeta(ctx, layoutID, layout.MetaElements, out.Bytes())
}

// convertElement returns the rewritten element and its new blocks keyed by
// column. ok is false when the element is left as stored.
func (m *Migrator) convertElement(layoutID, elementID string, raw json.RawMessage) (json.RawMessage, map[int]layout.Block, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		m.log.Warn().Str("layout_id", layoutID).Str("element_id", elementID).Msg("malformed element left unconverted")
		return nil, nil, false
	}
	var typ string
	if err := json.Unmarshal(fields["type"], &typ); err != nil {
		return nil, nil, false
	}
	if typ != layout.TypeContent && typ != layout.TypeColumns {
		return nil, nil, false
	}
	if m.registry != nil && !m.registry.IsElement(typ) {
		return nil, nil, false
	}

	opts := layout.DecodeBag(fields["options"])
	var cols map[int]layout.Block
	if typ == layout.TypeContent {
		cols = m.convertContent(layoutID, elementID, opts)
	} else {
		cols = m.convertColumns(layoutID, elementID, opts)
	}
	if len(cols) == 0 {
		return nil, nil, false
	}

	ob, err := json.Marshal(opts)
	if err != nil {
		return nil, nil, false
	}
	fields["options"] = ob
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, false
	}
	return out, cols, true
}

func (m *Migrator) convertContent(layoutID, elementID string, opts layout.Options) map[int]layout.Block {
	b, ok := sourceBlock(opts.String("source"), opts["page_id"], opts["raw_content"], opts["raw_format"], opts["widget_area"])
	if !ok {
		m.log.Warn().
			Str("layout_id", layoutID).
			Str("element_id", elementID).
			Str("source", opts.String("source")).
			Msg("content element without a usable source left unconverted")
		return nil
	}
	for _, k := range contentSourceKeys {
		delete(opts, k)
	}
	return map[int]layout.Block{1: b}
}

func (m *Migrator) convertColumns(layoutID, elementID string, opts layout.Options) map[int]layout.Block {
	limit := layout.MaxColumns
	if n, ok := opts.Map("setup").Int("num"); ok && n >= 1 && n <= layout.MaxColumns {
		limit = n
	}

	cols := make(map[int]layout.Block)
	for n := 1; n <= layout.MaxColumns; n++ {
		key := "col_" + strconv.Itoa(n)
		col := opts.Map(key)
		if col == nil {
			continue
		}
		if n > limit {
			m.log.Warn().Str("layout_id", layoutID).Str("element_id", elementID).Int("column", n).Msg("column beyond configured count left unconverted")
			continue
		}
		b, ok := sourceBlock(col.String("type"), col["page"], col["raw"], col["raw_format"], col["sidebar"])
		if !ok {
			m.log.Warn().Str("layout_id", layoutID).Str("element_id", elementID).Int("column", n).Msg("column without a usable type left unconverted")
			continue
		}
		for _, k := range columnSourceKeys {
			delete(col, k)
		}
		if len(col) == 0 {
			delete(opts, key)
		} else {
			opts[key] = col
		}
		cols[n] = b
	}
	return cols
}

// sourceBlock builds the block replacing one legacy source setting.
func sourceBlock(kind string, page, text, format, sidebar any) (layout.Block, bool) {
	b := layout.Block{ID: layout.NewID("block")}
	switch kind {
	case "current":
		b.Type, b.Options = elements.BlockCurrent, layout.Options{}
	case "page":
		if page == nil {
			return layout.Block{}, false
		}
		b.Type, b.Options = elements.BlockPage, layout.Options{"page_id": page}
	case "raw":
		b.Type, b.Options = elements.BlockRaw, layout.Options{"text": orEmpty(text), "format": orEmpty(format)}
	case "widget":
		if sidebar == nil {
			return layout.Block{}, false
		}
		b.Type, b.Options = elements.BlockWidget, layout.Options{"sidebar": sidebar}
	default:
		return layout.Block{}, false
	}
	return b, true
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
