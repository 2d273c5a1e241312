// Package form converts between a layout tree and the flat, bracketed field
// names the admin editor posts, e.g.
//
//	elements[section_x][element_y][options][setup][num]=2
//	elements[section_x][element_y][col_2][block_z][type]=raw
//
// Field order is significant: it is the display order of sections, elements
// and blocks.
package form

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"layout-builder/internal/domain/layout"
)

const (
	RootSections = "sections"
	RootElements = "elements"
)

type Field struct {
	Name  string
	Value string
}

// ParseOrdered decodes an urlencoded body keeping field order, which
// url.ParseQuery does not.
func ParseOrdered(body string) ([]Field, error) {
	var out []Field
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("field name %q: %w", name, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", n, err)
		}
		out = append(out, Field{Name: n, Value: v})
	}
	return out, nil
}

// Encode is the inverse of ParseOrdered.
func Encode(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// SplitName breaks "root[a][b]" into "root" and ["a", "b"]. An empty
// bracket pair yields an empty key.
func SplitName(name string) (string, []string) {
	i := strings.IndexByte(name, '[')
	if i < 0 {
		return name, nil
	}
	root, rest := name[:i], name[i:]
	var keys []string
	for strings.HasPrefix(rest, "[") {
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			break
		}
		keys = append(keys, rest[1:j])
		rest = rest[j+1:]
	}
	return root, keys
}

// JoinName builds a bracketed field name.
func JoinName(root string, keys ...string) string {
	var b strings.Builder
	b.WriteString(root)
	for _, k := range keys {
		b.WriteByte('[')
		b.WriteString(k)
		b.WriteByte(']')
	}
	return b.String()
}

// ColumnKey is the name segment of column n.
func ColumnKey(n int) string { return "col_" + strconv.Itoa(n) }

// ParseColumn reads a "col_{n}" segment.
func ParseColumn(seg string) (int, bool) {
	s, ok := strings.CutPrefix(seg, "col_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > layout.MaxColumns {
		return 0, false
	}
	return n, true
}

// flatten appends the fields of a nested bag under prefix, keys sorted.
func flatten(out []Field, root string, prefix []string, o layout.Options) []Field {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = flattenValue(out, root, append(prefix[:len(prefix):len(prefix)], k), o[k])
	}
	return out
}

func flattenValue(out []Field, root string, path []string, v any) []Field {
	switch t := v.(type) {
	case layout.Options:
		return flatten(out, root, path, t)
	case map[string]any:
		return flatten(out, root, path, layout.Options(t))
	case []any:
		if len(t) == 0 {
			return append(out, Field{Name: JoinName(root, append(path[:len(path):len(path)], "", "")...)})
		}
		for i, item := range t {
			switch item.(type) {
			case map[string]any, layout.Options:
				out = flattenValue(out, root, append(path[:len(path):len(path)], strconv.Itoa(i)), item)
			default:
				out = flattenValue(out, root, append(path[:len(path):len(path)], ""), item)
			}
		}
		return out
	case nil:
		return append(out, Field{Name: JoinName(root, path...)})
	case bool:
		val := "0"
		if t {
			val = "1"
		}
		return append(out, Field{Name: JoinName(root, path...), Value: val})
	case float64:
		return append(out, Field{Name: JoinName(root, path...), Value: strconv.FormatFloat(t, 'f', -1, 64)})
	default:
		return append(out, Field{Name: JoinName(root, path...), Value: fmt.Sprint(t)})
	}
}

// setPath stores value in o under the nested keys. An empty key appends to
// a list; a name ending in two empty keys, as in tags[][], marks an empty
// list. Lists of bags are posted with index keys and come back as bags keyed
// "0".."n-1" until restoreLists runs.
func setPath(o layout.Options, keys []string, value string) error {
	if len(keys) == 0 {
		return nil
	}
	k := keys[0]
	if len(keys) == 1 {
		o[k] = value
		return nil
	}
	if keys[1] == "" {
		switch {
		case len(keys) == 2:
			list, _ := o[k].([]any)
			o[k] = append(list, value)
		case len(keys) == 3 && keys[2] == "":
			if _, ok := o[k].([]any); !ok {
				o[k] = []any{}
			}
		default:
			return fmt.Errorf("list item %s cannot hold keys", k)
		}
		return nil
	}
	child := o.Map(k)
	if child == nil {
		child = layout.Options{}
	}
	if err := setPath(child, keys[1:], value); err != nil {
		return err
	}
	o[k] = child
	return nil
}

// restoreLists turns nested bags whose keys are exactly "0".."n-1" back
// into lists. o itself stays a bag.
func restoreLists(o layout.Options) {
	for k, v := range o {
		o[k] = restoreList(v)
	}
}

func restoreList(v any) any {
	o, ok := v.(layout.Options)
	if !ok {
		return v
	}
	restoreLists(o)
	if len(o) == 0 {
		return o
	}
	list := make([]any, len(o))
	for k, item := range o {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(o) || strconv.Itoa(i) != k {
			return o
		}
		list[i] = item
	}
	return list
}
