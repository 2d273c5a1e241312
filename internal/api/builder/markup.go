package builder

import (
	"bytes"
	"html/template"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/form"
	"layout-builder/internal/domain/layout"
)

// Editor markup. Every setting is carried by an input named after its
// position, which is what the editor posts back on save.
var adminTemplates = template.Must(template.New("admin").Parse(`
{{define "fields"}}{{range .}}<input type="hidden" name="{{.Name}}" value="{{.Value}}">{{end}}{{end}}
{{define "block"}}<div class="block-editor" id="{{.ID}}" data-type="{{.Type}}"><span class="block-name">{{.Name}}</span>{{template "fields" .Fields}}</div>{{end}}
{{define "element"}}<div class="element-editor{{if .Deprecated}} deprecated{{end}}" id="{{.ID}}" data-type="{{.Type}}" data-section="{{.Section}}"><span class="element-name">{{.Name}}</span>{{template "fields" .Fields}}{{range .Columns}}<div class="column-editor" data-col="{{.N}}">{{range .Blocks}}{{template "block" .}}{{end}}</div>{{end}}</div>{{end}}
{{define "section"}}<div class="section-editor" id="{{.ID}}"><input type="text" name="sections[{{.ID}}][label]" value="{{.Label}}">{{template "fields" .Fields}}<div class="section-elements">{{range .Elements}}{{template "element" .}}{{end}}</div></div>{{end}}
{{define "tree"}}<div class="layout-editor">{{range .}}{{template "section" .}}{{end}}</div>{{end}}
`))

type blockView struct {
	ID, Type, Name string
	Fields         []form.Field
}

type columnView struct {
	N      int
	Blocks []blockView
}

type elementView struct {
	ID, Type, Name, Section string
	Deprecated              bool
	Fields                  []form.Field
	Columns                 []columnView
}

type sectionView struct {
	ID, Label string
	Fields    []form.Field
	Elements  []elementView
}

type markup struct {
	registry *elements.Registry
}

func (m markup) block(sectionID, elementID string, n int, b *layout.Block) blockView {
	name := b.Type
	for _, s := range m.registry.Blocks() {
		if s.Type == b.Type {
			name = s.Name
		}
	}
	return blockView{ID: b.ID, Type: b.Type, Name: name, Fields: form.EncodeBlock(sectionID, elementID, n, b)}
}

// element expects the columns of el to be loaded.
func (m markup) element(sectionID string, el *layout.Element) elementView {
	v := elementView{ID: el.ID, Type: el.Type, Name: el.Type, Section: sectionID}
	if spec, err := m.registry.Get(el.Type); err == nil {
		v.Name, v.Deprecated = spec.Name, spec.Deprecated
	}
	for _, f := range form.EncodeElement(sectionID, el) {
		_, keys := form.SplitName(f.Name)
		if len(keys) > 2 {
			if _, ok := form.ParseColumn(keys[2]); ok {
				continue
			}
		}
		v.Fields = append(v.Fields, f)
	}
	if el.HasColumns() {
		for n := 1; n <= el.ColumnCount(); n++ {
			col := columnView{N: n}
			blocks, _ := el.Blocks(n)
			for i := range blocks {
				col.Blocks = append(col.Blocks, m.block(sectionID, el.ID, n, &blocks[i]))
			}
			v.Columns = append(v.Columns, col)
		}
	}
	return v
}

func (m markup) section(s *layout.Section) sectionView {
	v := sectionView{ID: s.ID, Label: s.Label}
	for _, f := range form.EncodeSection(s) {
		if _, keys := form.SplitName(f.Name); len(keys) > 1 && keys[1] == "label" {
			continue
		}
		v.Fields = append(v.Fields, f)
	}
	for i := range s.Elements {
		v.Elements = append(v.Elements, m.element(s.ID, &s.Elements[i]))
	}
	return v
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := adminTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m markup) Block(sectionID, elementID string, n int, b *layout.Block) (string, error) {
	return render("block", m.block(sectionID, elementID, n, b))
}

func (m markup) Element(sectionID string, el *layout.Element) (string, error) {
	return render("element", m.element(sectionID, el))
}

func (m markup) Section(s *layout.Section) (string, error) {
	return render("section", m.section(s))
}

func (m markup) Tree(t *layout.Tree) (string, error) {
	views := make([]sectionView, 0, len(t.Sections))
	for i := range t.Sections {
		views = append(views, m.section(&t.Sections[i]))
	}
	return render("tree", views)
}
