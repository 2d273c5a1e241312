package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxColumns bounds the column count of a columns element.
const MaxColumns = 5

// Element types that own content-block columns.
const (
	TypeColumns = "columns"
	TypeContent = "content"
)

// Options is a type-specific bag of settings, shaped like decoded JSON.
type Options map[string]any

// String returns the value at key as a string ("" when absent).
func (o Options) String(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Map returns the nested bag at key, or nil.
func (o Options) Map(key string) Options {
	switch v := o[key].(type) {
	case Options:
		return v
	case map[string]any:
		return Options(v)
	}
	return nil
}

// Int parses the value at key, reporting whether it was a usable integer.
func (o Options) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// Bool treats "1", "true", "yes" and non-zero numbers as true.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// Clone deep-copies nested bags and slices.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Options:
		return t.Clone()
	case map[string]any:
		return Options(t).Clone()
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	}
	return v
}

type Block struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Options Options `json:"options"`
}

type Element struct {
	ID      string
	Type    string
	Options Options
	Display Options

	// columns holds block lists that have been loaded or assigned, keyed by
	// 1-based column index.
	columns map[int][]Block
}

// HasColumns reports whether the element stores content blocks.
func (e *Element) HasColumns() bool {
	return e.Type == TypeColumns || e.Type == TypeContent
}

// ColumnCount is 1 for content elements and setup.num (1..MaxColumns) for
// columns elements.
func (e *Element) ColumnCount() int {
	if e.Type != TypeColumns {
		return 1
	}
	n, ok := e.Options.Map("setup").Int("num")
	if !ok || n < 1 {
		return 1
	}
	if n > MaxColumns {
		return MaxColumns
	}
	return n
}

// Blocks returns the loaded blocks of column n.
func (e *Element) Blocks(n int) ([]Block, bool) {
	b, ok := e.columns[n]
	return b, ok
}

// SetBlocks assigns the block list of column n.
func (e *Element) SetBlocks(n int, blocks []Block) {
	if e.columns == nil {
		e.columns = make(map[int][]Block)
	}
	if blocks == nil {
		blocks = []Block{}
	}
	e.columns[n] = blocks
}

// LoadedColumns lists the column indexes present in memory.
func (e *Element) LoadedColumns() []int {
	out := make([]int, 0, len(e.columns))
	for i := 1; i <= MaxColumns; i++ {
		if _, ok := e.columns[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// PopoutEligible reports whether the element needs its own section: a
// background other than none, or an explicit pop-out flag.
func (e *Element) PopoutEligible() bool {
	bg := strings.TrimSpace(e.Display.String("bg_type"))
	if bg != "" && bg != "none" {
		return true
	}
	return e.Display.Bool("popout")
}

func (e Element) clone() Element {
	out := Element{
		ID:      e.ID,
		Type:    e.Type,
		Options: e.Options.Clone(),
		Display: e.Display.Clone(),
	}
	for n, blocks := range e.columns {
		cp := make([]Block, len(blocks))
		for i, b := range blocks {
			cp[i] = Block{ID: b.ID, Type: b.Type, Options: b.Options.Clone()}
		}
		out.SetBlocks(n, cp)
	}
	return out
}

type Section struct {
	ID       string
	Label    string
	Display  Options
	Elements []Element
}

// Tree is the ordered in-memory form of a layout.
type Tree struct {
	Sections []Section
}

// Elements returns every element in document order.
func (t *Tree) Elements() []*Element {
	var out []*Element
	for si := range t.Sections {
		for ei := range t.Sections[si].Elements {
			out = append(out, &t.Sections[si].Elements[ei])
		}
	}
	return out
}

// Section returns the section with id.
func (t *Tree) Section(id string) (*Section, error) {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return &t.Sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
}

// Find locates an element and the section holding it.
func (t *Tree) Find(elementID string) (*Element, *Section, error) {
	for si := range t.Sections {
		s := &t.Sections[si]
		for ei := range s.Elements {
			if s.Elements[ei].ID == elementID {
				return &s.Elements[ei], s, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrElementNotFound, elementID)
}

// AddSection appends an empty section and returns it.
func (t *Tree) AddSection(label string, display Options) *Section {
	t.Sections = append(t.Sections, Section{
		ID:      NewID("section"),
		Label:   label,
		Display: display,
	})
	return &t.Sections[len(t.Sections)-1]
}

// DeleteSection removes a section with all of its elements and returns the
// removed elements.
func (t *Tree) DeleteSection(id string) ([]Element, error) {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			removed := t.Sections[i].Elements
			t.Sections = append(t.Sections[:i], t.Sections[i+1:]...)
			return removed, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
}

// AddElement appends a new element of type typ to a section.
func (t *Tree) AddElement(sectionID, typ string, options Options) (*Element, error) {
	s, err := t.Section(sectionID)
	if err != nil {
		return nil, err
	}
	el := Element{ID: NewID("element"), Type: typ, Options: options, Display: Options{}}
	if el.HasColumns() {
		for n := 1; n <= el.ColumnCount(); n++ {
			el.SetBlocks(n, nil)
		}
	}
	s.Elements = append(s.Elements, el)
	return &s.Elements[len(s.Elements)-1], nil
}

// InsertElement places el in a section at pos (clamped; negative appends).
func (t *Tree) InsertElement(sectionID string, pos int, el Element) (*Element, error) {
	s, err := t.Section(sectionID)
	if err != nil {
		return nil, err
	}
	if pos < 0 || pos > len(s.Elements) {
		pos = len(s.Elements)
	}
	s.Elements = append(s.Elements, Element{})
	copy(s.Elements[pos+1:], s.Elements[pos:])
	s.Elements[pos] = el
	return &s.Elements[pos], nil
}

// DeleteElement removes an element and returns it.
func (t *Tree) DeleteElement(id string) (Element, error) {
	for si := range t.Sections {
		s := &t.Sections[si]
		for ei := range s.Elements {
			if s.Elements[ei].ID == id {
				el := s.Elements[ei]
				s.Elements = append(s.Elements[:ei], s.Elements[ei+1:]...)
				return el, nil
			}
		}
	}
	return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
}

// MoveElement moves an element to position pos of section toSection and
// returns the ID of the section it left.
func (t *Tree) MoveElement(id, toSection string, pos int) (string, error) {
	if _, err := t.Section(toSection); err != nil {
		return "", err
	}
	_, from, err := t.Find(id)
	if err != nil {
		return "", err
	}
	fromID := from.ID
	el, err := t.DeleteElement(id)
	if err != nil {
		return "", err
	}
	if _, err := t.InsertElement(toSection, pos, el); err != nil {
		return "", err
	}
	return fromID, nil
}

// Clear drops every element but keeps a single empty section.
func (t *Tree) Clear() {
	t.Sections = []Section{{ID: NewID("section"), Display: Options{}}}
}

// Clone deep-copies the tree. With fresh set, every section, element and
// block gets a new ID.
func (t Tree) Clone(fresh bool) Tree {
	out := Tree{Sections: make([]Section, len(t.Sections))}
	for si, s := range t.Sections {
		ns := Section{ID: s.ID, Label: s.Label, Display: s.Display.Clone()}
		if fresh {
			ns.ID = NewID("section")
		}
		ns.Elements = make([]Element, len(s.Elements))
		for ei, e := range s.Elements {
			ne := e.clone()
			if fresh {
				ne.ID = NewID("element")
				for n, blocks := range ne.columns {
					for bi := range blocks {
						blocks[bi].ID = NewID("block")
					}
					ne.columns[n] = blocks
				}
			}
			ns.Elements[ei] = ne
		}
		out.Sections[si] = ns
	}
	return out
}

// CloneElement copies an element with fresh element and block IDs.
func CloneElement(e Element) Element {
	ne := e.clone()
	ne.ID = NewID("element")
	for _, blocks := range ne.columns {
		for bi := range blocks {
			blocks[bi].ID = NewID("block")
		}
	}
	return ne
}

// ColumnKey is the meta key holding the blocks of column n of an element.
func ColumnKey(elementID string, n int) string {
	return elementID + "_col_" + strconv.Itoa(n)
}

// ParseColumnKey splits a column meta key into element ID and column index.
func ParseColumnKey(key string) (string, int, bool) {
	i := strings.LastIndex(key, "_col_")
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[i+len("_col_"):])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return key[:i], n, true
}
