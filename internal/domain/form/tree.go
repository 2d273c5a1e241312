package form

import (
	"fmt"

	"layout-builder/internal/domain/layout"
)

// Decode builds a tree from posted fields. Sections, elements and blocks
// appear in the order their first field does. Columnar elements get every
// column up to their column count, so a column whose last block was removed
// is saved empty.
func Decode(fields []Field) (layout.Tree, error) {
	var tree layout.Tree
	sections := make(map[string]int)
	type elemRef struct{ section, index int }
	elems := make(map[string]elemRef)
	type blockRef struct {
		col   int
		index int
	}
	blocks := make(map[string]map[int][]layout.Block)
	blockIdx := make(map[string]blockRef)

	section := func(sid string) *layout.Section {
		i, ok := sections[sid]
		if !ok {
			tree.Sections = append(tree.Sections, layout.Section{ID: sid, Display: layout.Options{}})
			i = len(tree.Sections) - 1
			sections[sid] = i
		}
		return &tree.Sections[i]
	}
	element := func(sid, eid string) (*layout.Element, error) {
		if ref, ok := elems[eid]; ok {
			if tree.Sections[ref.section].ID != sid {
				return nil, fmt.Errorf("element %s posted under two sections", eid)
			}
			return &tree.Sections[ref.section].Elements[ref.index], nil
		}
		s := section(sid)
		s.Elements = append(s.Elements, layout.Element{ID: eid, Options: layout.Options{}, Display: layout.Options{}})
		elems[eid] = elemRef{section: sections[sid], index: len(s.Elements) - 1}
		return &s.Elements[len(s.Elements)-1], nil
	}

	for _, f := range fields {
		root, keys := SplitName(f.Name)
		switch root {
		case RootSections:
			if len(keys) < 2 || keys[0] == "" {
				continue
			}
			s := section(keys[0])
			switch keys[1] {
			case "label":
				s.Label = f.Value
			case "display":
				if err := setPath(s.Display, keys[2:], f.Value); err != nil {
					return layout.Tree{}, fmt.Errorf("field %s: %w", f.Name, err)
				}
			}

		case RootElements:
			if len(keys) < 3 || keys[0] == "" || keys[1] == "" {
				continue
			}
			el, err := element(keys[0], keys[1])
			if err != nil {
				return layout.Tree{}, err
			}
			switch keys[2] {
			case "type":
				el.Type = f.Value
			case "options":
				if err := setPath(el.Options, keys[3:], f.Value); err != nil {
					return layout.Tree{}, fmt.Errorf("field %s: %w", f.Name, err)
				}
			case "display":
				if err := setPath(el.Display, keys[3:], f.Value); err != nil {
					return layout.Tree{}, fmt.Errorf("field %s: %w", f.Name, err)
				}
			default:
				n, ok := ParseColumn(keys[2])
				if !ok || len(keys) < 5 || keys[3] == "" {
					continue
				}
				bid := keys[3]
				if blocks[el.ID] == nil {
					blocks[el.ID] = make(map[int][]layout.Block)
				}
				ref, ok := blockIdx[el.ID+"\x00"+bid]
				if !ok {
					blocks[el.ID][n] = append(blocks[el.ID][n], layout.Block{ID: bid, Options: layout.Options{}})
					ref = blockRef{col: n, index: len(blocks[el.ID][n]) - 1}
					blockIdx[el.ID+"\x00"+bid] = ref
				}
				if ref.col != n {
					return layout.Tree{}, fmt.Errorf("block %s posted under two columns", bid)
				}
				b := &blocks[el.ID][n][ref.index]
				switch keys[4] {
				case "type":
					b.Type = f.Value
				case "options":
					if err := setPath(b.Options, keys[5:], f.Value); err != nil {
						return layout.Tree{}, fmt.Errorf("field %s: %w", f.Name, err)
					}
				}
			}
		}
	}

	for si := range tree.Sections {
		restoreLists(tree.Sections[si].Display)
	}
	for _, el := range tree.Elements() {
		restoreLists(el.Options)
		restoreLists(el.Display)
		if !el.HasColumns() {
			continue
		}
		for n := 1; n <= el.ColumnCount(); n++ {
			for _, b := range blocks[el.ID][n] {
				restoreLists(b.Options)
			}
			el.SetBlocks(n, blocks[el.ID][n])
		}
	}
	return tree, nil
}

// EncodeSection returns the fields of a section's own settings.
func EncodeSection(s *layout.Section) []Field {
	out := []Field{{Name: JoinName(RootSections, s.ID, "label"), Value: s.Label}}
	return flatten(out, RootSections, []string{s.ID, "display"}, s.Display)
}

// EncodeElement returns the fields of an element and of its loaded blocks.
func EncodeElement(sectionID string, el *layout.Element) []Field {
	out := []Field{{Name: JoinName(RootElements, sectionID, el.ID, "type"), Value: el.Type}}
	out = flatten(out, RootElements, []string{sectionID, el.ID, "options"}, el.Options)
	out = flatten(out, RootElements, []string{sectionID, el.ID, "display"}, el.Display)
	for _, n := range el.LoadedColumns() {
		blocks, _ := el.Blocks(n)
		for i := range blocks {
			out = append(out, EncodeBlock(sectionID, el.ID, n, &blocks[i])...)
		}
	}
	return out
}

// EncodeBlock returns the fields of one content block.
func EncodeBlock(sectionID, elementID string, n int, b *layout.Block) []Field {
	out := []Field{{Name: JoinName(RootElements, sectionID, elementID, ColumnKey(n), b.ID, "type"), Value: b.Type}}
	return flatten(out, RootElements, []string{sectionID, elementID, ColumnKey(n), b.ID, "options"}, b.Options)
}

// EncodeTree returns the full form of a tree. Columns must be loaded.
func EncodeTree(t *layout.Tree) []Field {
	var out []Field
	for si := range t.Sections {
		s := &t.Sections[si]
		out = append(out, EncodeSection(s)...)
		for ei := range s.Elements {
			out = append(out, EncodeElement(s.ID, &s.Elements[ei])...)
		}
	}
	return out
}

// MoveElementFields rewrites the section segment of every field of an
// element that moved from one section to another.
func MoveElementFields(fields []Field, elementID, from, to string) []Field {
	return rewrite(fields, func(root string, keys []string) bool {
		if root != RootElements || len(keys) < 2 || keys[0] != from || keys[1] != elementID {
			return false
		}
		keys[0] = to
		return true
	})
}

// MoveBlockFields rewrites the column segment of every field of a block
// that moved from column from to column to.
func MoveBlockFields(fields []Field, blockID string, from, to int) []Field {
	fromKey, toKey := ColumnKey(from), ColumnKey(to)
	return rewrite(fields, func(root string, keys []string) bool {
		if root != RootElements || len(keys) < 4 || keys[2] != fromKey || keys[3] != blockID {
			return false
		}
		keys[2] = toKey
		return true
	})
}

// RenameID replaces a section, element or block ID wherever it sits in a
// position segment. Option values and option keys are left alone.
func RenameID(fields []Field, oldID, newID string) []Field {
	return rewrite(fields, func(root string, keys []string) bool {
		changed := false
		switch root {
		case RootSections:
			if len(keys) > 0 && keys[0] == oldID {
				keys[0], changed = newID, true
			}
		case RootElements:
			for _, i := range []int{0, 1} {
				if len(keys) > i && keys[i] == oldID {
					keys[i], changed = newID, true
				}
			}
			if len(keys) > 3 && keys[3] == oldID {
				if _, ok := ParseColumn(keys[2]); ok {
					keys[3], changed = newID, true
				}
			}
		}
		return changed
	})
}

// ElementFields selects the fields belonging to one element, its blocks
// included.
func ElementFields(fields []Field, elementID string) []Field {
	var out []Field
	for _, f := range fields {
		root, keys := SplitName(f.Name)
		if root == RootElements && len(keys) > 1 && keys[1] == elementID {
			out = append(out, f)
		}
	}
	return out
}

// BlockFields selects the fields belonging to one block.
func BlockFields(fields []Field, blockID string) []Field {
	var out []Field
	for _, f := range fields {
		root, keys := SplitName(f.Name)
		if root != RootElements || len(keys) < 4 || keys[3] != blockID {
			continue
		}
		if _, ok := ParseColumn(keys[2]); ok {
			out = append(out, f)
		}
	}
	return out
}

func rewrite(fields []Field, fn func(root string, keys []string) bool) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		root, keys := SplitName(f.Name)
		if fn(root, keys) {
			f.Name = JoinName(root, keys...)
		}
		out[i] = f
	}
	return out
}

// BlockRef locates a block posted on its own.
type BlockRef struct {
	SectionID string
	ElementID string
	Column    int
	Block     layout.Block
}

// DecodeBlock reads the fields of a single block, as posted when the editor
// copies one.
func DecodeBlock(fields []Field) (BlockRef, error) {
	var ref BlockRef
	for _, f := range fields {
		root, keys := SplitName(f.Name)
		if root != RootElements || len(keys) < 5 {
			continue
		}
		n, ok := ParseColumn(keys[2])
		if !ok || keys[3] == "" {
			continue
		}
		if ref.Block.ID == "" {
			ref = BlockRef{SectionID: keys[0], ElementID: keys[1], Column: n, Block: layout.Block{ID: keys[3], Options: layout.Options{}}}
		}
		if keys[1] != ref.ElementID || keys[3] != ref.Block.ID || n != ref.Column {
			return BlockRef{}, fmt.Errorf("fields of more than one block posted")
		}
		switch keys[4] {
		case "type":
			ref.Block.Type = f.Value
		case "options":
			if err := setPath(ref.Block.Options, keys[5:], f.Value); err != nil {
				return BlockRef{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	if ref.Block.ID == "" {
		return BlockRef{}, fmt.Errorf("no block fields posted")
	}
	restoreLists(ref.Block.Options)
	return ref, nil
}
