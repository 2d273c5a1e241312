package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// The persisted shapes are JSON objects whose key order is the display
// order. Go maps don't keep order, so these are walked token by token and
// written by hand.

type elementJSON struct {
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options,omitempty"`
	Display json.RawMessage `json:"display,omitempty"`
}

type sectionJSON struct {
	Label   string          `json:"label,omitempty"`
	Display json.RawMessage `json:"display,omitempty"`
}

type blockJSON struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options,omitempty"`
}

func isEmptyJSON(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "", "null", "[]", "{}", `""`, "false":
		return true
	}
	return false
}

// WalkObject calls fn for every member of a JSON object, in document order.
// Arrays are accepted too, keyed by index, since older data was written by
// serializers that emit lists for integer-keyed maps.
func WalkObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	if isEmptyJSON(data) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for i := 0; dec.More(); i++ {
		key := strconv.Itoa(i)
		if delim == '{' {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			s, ok := tok.(string)
			if !ok {
				return fmt.Errorf("expected object key, got %v", tok)
			}
			key = s
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// DecodeBag decodes an option bag, treating empty lists and scalars as an
// empty bag.
func DecodeBag(raw json.RawMessage) Options {
	if isEmptyJSON(raw) {
		return Options{}
	}
	var out Options
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return Options{}
	}
	return out
}

// DecodeElement decodes a single stored element.
func DecodeElement(id string, raw json.RawMessage) (Element, error) {
	var ej elementJSON
	if err := json.Unmarshal(raw, &ej); err != nil {
		return Element{}, fmt.Errorf("element %s: %w", id, err)
	}
	return Element{
		ID:      id,
		Type:    ej.Type,
		Options: DecodeBag(ej.Options),
		Display: DecodeBag(ej.Display),
	}, nil
}

// EncodeElement encodes a single element without its columns.
func EncodeElement(e *Element) (json.RawMessage, error) {
	opts := e.Options
	if opts == nil {
		opts = Options{}
	}
	ob, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	var db []byte
	if len(e.Display) > 0 {
		if db, err = json.Marshal(e.Display); err != nil {
			return nil, err
		}
	}
	return json.Marshal(elementJSON{Type: e.Type, Options: ob, Display: db})
}

// DecodeElements reads the elements meta value: section ID -> element ID ->
// element, both levels ordered. Members that are not objects are skipped.
func DecodeElements(data []byte) ([]Section, error) {
	var sections []Section
	err := WalkObject(data, func(sid string, raw json.RawMessage) error {
		s := Section{ID: sid, Display: Options{}}
		err := WalkObject(raw, func(eid string, eraw json.RawMessage) error {
			el, err := DecodeElement(eid, eraw)
			if err != nil {
				return nil
			}
			s.Elements = append(s.Elements, el)
			return nil
		})
		if err != nil {
			return fmt.Errorf("section %s: %w", sid, err)
		}
		sections = append(sections, s)
		return nil
	})
	return sections, err
}

// EncodeElements writes the elements meta value in tree order.
func EncodeElements(t *Tree) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for si, s := range t.Sections {
		if si > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, s.ID)
		buf.WriteByte('{')
		for ei := range s.Elements {
			if ei > 0 {
				buf.WriteByte(',')
			}
			raw, err := EncodeElement(&s.Elements[ei])
			if err != nil {
				return nil, fmt.Errorf("element %s: %w", s.Elements[ei].ID, err)
			}
			writeKey(&buf, s.Elements[ei].ID)
			buf.Write(raw)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ApplySections merges the sections meta value (labels and display bags)
// into sections decoded from the elements value. Sections only present in
// the sections value are appended empty.
func ApplySections(sections []Section, data []byte) ([]Section, error) {
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.ID] = i
	}
	err := WalkObject(data, func(sid string, raw json.RawMessage) error {
		var sj sectionJSON
		if err := json.Unmarshal(raw, &sj); err != nil {
			return nil
		}
		i, ok := index[sid]
		if !ok {
			sections = append(sections, Section{ID: sid})
			i = len(sections) - 1
			index[sid] = i
		}
		sections[i].Label = sj.Label
		sections[i].Display = DecodeBag(sj.Display)
		return nil
	})
	return sections, err
}

// EncodeSections writes the sections meta value in tree order.
func EncodeSections(t *Tree) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for si, s := range t.Sections {
		if si > 0 {
			buf.WriteByte(',')
		}
		display := s.Display
		if display == nil {
			display = Options{}
		}
		db, err := json.Marshal(display)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(sectionJSON{Label: s.Label, Display: db})
		if err != nil {
			return nil, err
		}
		writeKey(&buf, s.ID)
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeBlocks reads a column value. The current shape is a list of blocks;
// an object keyed by block ID is accepted as well.
func DecodeBlocks(data []byte) ([]Block, error) {
	blocks := []Block{}
	err := WalkObject(data, func(key string, raw json.RawMessage) error {
		var bj blockJSON
		if err := json.Unmarshal(raw, &bj); err != nil {
			return nil
		}
		if bj.ID == "" {
			bj.ID = key
		}
		blocks = append(blocks, Block{ID: bj.ID, Type: bj.Type, Options: DecodeBag(bj.Options)})
		return nil
	})
	return blocks, err
}

// EncodeBlocks writes a column value.
func EncodeBlocks(blocks []Block) (json.RawMessage, error) {
	out := make([]blockJSON, 0, len(blocks))
	for _, b := range blocks {
		opts := b.Options
		if opts == nil {
			opts = Options{}
		}
		ob, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out = append(out, blockJSON{ID: b.ID, Type: b.Type, Options: ob})
	}
	return json.Marshal(out)
}

// WriteMember appends `"key":raw` to an object being built in buf.
func WriteMember(buf *bytes.Buffer, key string, raw json.RawMessage) {
	writeKey(buf, key)
	buf.Write(raw)
}

func writeKey(buf *bytes.Buffer, key string) {
	kb, _ := json.Marshal(key)
	buf.Write(kb)
	buf.WriteByte(':')
}
