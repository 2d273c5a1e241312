package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// MetaStore is the key/value view of a layout the tree reads and writes.
type MetaStore interface {
	GetMeta(ctx context.Context, layoutID, key string) (json.RawMessage, error)
	SetMeta(ctx context.Context, layoutID, key string, value json.RawMessage) error
	DeleteMeta(ctx context.Context, layoutID, key string) error
	MetaKeys(ctx context.Context, layoutID string) ([]string, error)
}

// Document is a layout tree bound to its store. Column block lists are read
// lazily, the first time something asks for them.
type Document struct {
	LayoutID string
	Tree     Tree

	store MetaStore
}

// NewDocument binds an in-memory tree to a layout. Save writes every column
// the tree's elements carry.
func NewDocument(s MetaStore, layoutID string, tree Tree) *Document {
	return &Document{LayoutID: layoutID, Tree: tree, store: s}
}

// Load reads the elements and sections values of a layout. It does not
// upgrade old data; callers go through the migrator for that.
func Load(ctx context.Context, s MetaStore, layoutID string) (*Document, error) {
	doc := &Document{LayoutID: layoutID, store: s}

	raw, err := s.GetMeta(ctx, layoutID, MetaElements)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	sections, err := DecodeElements(raw)
	if err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}

	raw, err = s.GetMeta(ctx, layoutID, MetaSections)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	if sections, err = ApplySections(sections, raw); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}

	doc.Tree.Sections = sections
	return doc, nil
}

// Column returns the blocks of column n of an element, reading them from the
// store on first use.
func (d *Document) Column(ctx context.Context, elementID string, n int) ([]Block, error) {
	el, _, err := d.Tree.Find(elementID)
	if err != nil {
		return nil, err
	}
	return d.ElementColumn(ctx, el, n)
}

// ElementColumn is Column for an element already at hand.
func (d *Document) ElementColumn(ctx context.Context, el *Element, n int) ([]Block, error) {
	if !el.HasColumns() {
		return nil, fmt.Errorf("%w: %s", ErrNotColumnar, el.ID)
	}
	if n < 1 || n > MaxColumns {
		return nil, fmt.Errorf("%w: %d", ErrColumnOutOfRange, n)
	}
	if blocks, ok := el.Blocks(n); ok {
		return blocks, nil
	}

	raw, err := d.store.GetMeta(ctx, d.LayoutID, ColumnKey(el.ID, n))
	if errors.Is(err, ErrNotFound) {
		el.SetBlocks(n, nil)
		blocks, _ := el.Blocks(n)
		return blocks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load column %s: %w", ColumnKey(el.ID, n), err)
	}
	blocks, err := DecodeBlocks(raw)
	if err != nil {
		return nil, fmt.Errorf("decode column %s: %w", ColumnKey(el.ID, n), err)
	}
	el.SetBlocks(n, blocks)
	return blocks, nil
}

// LoadAll reads every column of every columnar element. Needed before a
// tree is copied somewhere else.
func (d *Document) LoadAll(ctx context.Context) error {
	for _, el := range d.Tree.Elements() {
		if !el.HasColumns() {
			continue
		}
		for n := 1; n <= el.ColumnCount(); n++ {
			if _, err := d.ElementColumn(ctx, el, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddBlock appends a block of type typ to column n of an element.
func (d *Document) AddBlock(ctx context.Context, elementID string, n int, typ string, options Options) (Block, error) {
	el, _, err := d.Tree.Find(elementID)
	if err != nil {
		return Block{}, err
	}
	if !el.HasColumns() {
		return Block{}, fmt.Errorf("%w: %s", ErrNotColumnar, elementID)
	}
	if n < 1 || n > el.ColumnCount() {
		return Block{}, fmt.Errorf("%w: %d of %d", ErrColumnOutOfRange, n, el.ColumnCount())
	}
	blocks, err := d.ElementColumn(ctx, el, n)
	if err != nil {
		return Block{}, err
	}
	b := Block{ID: NewID("block"), Type: typ, Options: options}
	el.SetBlocks(n, append(blocks, b))
	return b, nil
}

// InsertBlock places an existing block in column n at pos (negative appends).
func (d *Document) InsertBlock(ctx context.Context, elementID string, n, pos int, b Block) error {
	el, _, err := d.Tree.Find(elementID)
	if err != nil {
		return err
	}
	if n < 1 || n > el.ColumnCount() {
		return fmt.Errorf("%w: %d of %d", ErrColumnOutOfRange, n, el.ColumnCount())
	}
	blocks, err := d.ElementColumn(ctx, el, n)
	if err != nil {
		return err
	}
	el.SetBlocks(n, insertBlock(blocks, pos, b))
	return nil
}

// FindBlock searches the loaded and stored columns of an element.
func (d *Document) FindBlock(ctx context.Context, elementID, blockID string) (Block, int, error) {
	el, _, err := d.Tree.Find(elementID)
	if err != nil {
		return Block{}, 0, err
	}
	if !el.HasColumns() {
		return Block{}, 0, fmt.Errorf("%w: %s", ErrNotColumnar, elementID)
	}
	for n := 1; n <= el.ColumnCount(); n++ {
		blocks, err := d.ElementColumn(ctx, el, n)
		if err != nil {
			return Block{}, 0, err
		}
		for _, b := range blocks {
			if b.ID == blockID {
				return b, n, nil
			}
		}
	}
	return Block{}, 0, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
}

// DeleteBlock removes a block from whichever column holds it.
func (d *Document) DeleteBlock(ctx context.Context, elementID, blockID string) (Block, error) {
	_, n, err := d.FindBlock(ctx, elementID, blockID)
	if err != nil {
		return Block{}, err
	}
	el, _, _ := d.Tree.Find(elementID)
	blocks, _ := el.Blocks(n)
	for i := range blocks {
		if blocks[i].ID == blockID {
			b := blocks[i]
			el.SetBlocks(n, append(blocks[:i:i], blocks[i+1:]...))
			return b, nil
		}
	}
	return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
}

// MoveBlock moves a block from column fromCol to position pos of column
// toCol of the same element.
func (d *Document) MoveBlock(ctx context.Context, elementID, blockID string, fromCol, toCol, pos int) error {
	_, at, err := d.FindBlock(ctx, elementID, blockID)
	if err != nil {
		return err
	}
	if at != fromCol {
		return fmt.Errorf("%w: %s is in column %d, not %d", ErrBlockNotFound, blockID, at, fromCol)
	}
	el, _, _ := d.Tree.Find(elementID)
	if toCol < 1 || toCol > el.ColumnCount() {
		return fmt.Errorf("%w: %d of %d", ErrColumnOutOfRange, toCol, el.ColumnCount())
	}
	b, err := d.DeleteBlock(ctx, elementID, blockID)
	if err != nil {
		return err
	}
	return d.InsertBlock(ctx, elementID, toCol, pos, b)
}

func insertBlock(blocks []Block, pos int, b Block) []Block {
	if pos < 0 || pos > len(blocks) {
		pos = len(blocks)
	}
	out := make([]Block, 0, len(blocks)+1)
	out = append(out, blocks[:pos]...)
	out = append(out, b)
	return append(out, blocks[pos:]...)
}

// Save writes the tree back: elements, sections, every loaded column, and
// removes column values whose element is gone. Columns never loaded are left
// as stored.
func (d *Document) Save(ctx context.Context) error {
	raw, err := EncodeElements(&d.Tree)
	if err != nil {
		return err
	}
	if err := d.store.SetMeta(ctx, d.LayoutID, MetaElements, raw); err != nil {
		return fmt.Errorf("save elements: %w", err)
	}

	raw, err = EncodeSections(&d.Tree)
	if err != nil {
		return err
	}
	if err := d.store.SetMeta(ctx, d.LayoutID, MetaSections, raw); err != nil {
		return fmt.Errorf("save sections: %w", err)
	}

	live := make(map[string]bool)
	for _, el := range d.Tree.Elements() {
		if !el.HasColumns() {
			continue
		}
		live[el.ID] = true
		for _, n := range el.LoadedColumns() {
			blocks, _ := el.Blocks(n)
			raw, err := EncodeBlocks(blocks)
			if err != nil {
				return err
			}
			if err := d.store.SetMeta(ctx, d.LayoutID, ColumnKey(el.ID, n), raw); err != nil {
				return fmt.Errorf("save column %s: %w", ColumnKey(el.ID, n), err)
			}
		}
	}

	keys, err := d.store.MetaKeys(ctx, d.LayoutID)
	if err != nil {
		return fmt.Errorf("list meta: %w", err)
	}
	for _, key := range keys {
		eid, _, ok := ParseColumnKey(key)
		if !ok || live[eid] {
			continue
		}
		if err := d.store.DeleteMeta(ctx, d.LayoutID, key); err != nil {
			return fmt.Errorf("delete column %s: %w", key, err)
		}
	}
	return nil
}
