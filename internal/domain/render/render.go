// Package render turns a stored layout into front-end markup.
//
// Elements are walked strictly in stored order. The walk is stateful: the
// visible counter, the pop-out flag of the previous element and whether the
// primary query was already claimed all carry from one element to the next.
package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/migrate"
	"layout-builder/internal/hooks"
	"layout-builder/internal/infra/store"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Post is the post being viewed, used by "current" content blocks.
type Post struct {
	ID      string
	Title   string
	Content string
}

// Request selects what to render.
type Request struct {
	LayoutID string
	// Location restricts output to one section, for themes that place
	// featured areas outside the main content.
	Location string
	// Page is the pagination page handed to the primary query.
	Page int
	Post *Post
}

// Query tells a strategy whether it drives the page's primary query.
type Query struct {
	Primary bool
	Page    int
}

// PageSource resolves "page" content blocks.
type PageSource interface {
	PageContent(ctx context.Context, pageID string) (string, error)
}

// WidgetSource resolves "widget" content blocks.
type WidgetSource interface {
	WidgetArea(ctx context.Context, sidebar string) (string, error)
}

// ElementEvent is handed to the per-element lifecycle hooks.
type ElementEvent struct {
	W         io.Writer
	LayoutID  string
	SectionID string
	Element   *layout.Element
	Counter   int
	Total     int
	Classes   []string
}

// SectionEvent is handed to the section open/close hooks.
type SectionEvent struct {
	W       io.Writer
	Section *layout.Section
	Index   int
	// First is set on the first wrapper emitted for a stored section.
	First   bool
	Popout  *layout.Element
	Classes []string
}

type Renderer struct {
	store    store.Store
	registry *elements.Registry
	migrator *migrate.Migrator
	log      zerolog.Logger

	strategies map[string]Strategy
	blocks     map[string]BlockStrategy

	Pages   PageSource
	Widgets WidgetSource
	// Policy sanitizes raw HTML. nil leaves HTML untouched.
	Policy *bluemonday.Policy

	Before hooks.Action[*ElementEvent]
	Open   hooks.Action[*ElementEvent]
	Top    hooks.Action[*ElementEvent]
	Bottom hooks.Action[*ElementEvent]
	Close  hooks.Action[*ElementEvent]
	After  hooks.Action[*ElementEvent]

	SectionOpen  hooks.Action[*SectionEvent]
	SectionClose hooks.Action[*SectionEvent]

	// ElementClasses may add or drop classes before the open hook runs.
	ElementClasses hooks.Filter[*ElementEvent]
}

// New returns a renderer with the built-in strategies and the default
// wrapper markup installed on the open/close hooks.
func New(s store.Store, registry *elements.Registry, migrator *migrate.Migrator, log zerolog.Logger) *Renderer {
	r := &Renderer{
		store:      s,
		registry:   registry,
		migrator:   migrator,
		log:        log,
		strategies: make(map[string]Strategy),
		blocks:     make(map[string]BlockStrategy),
		Policy:     bluemonday.UGCPolicy(),
	}
	r.registerBuiltins()

	r.Open.Add(func(_ context.Context, e *ElementEvent) {
		fmt.Fprintf(e.W, `<div id="%s" class="%s">`, html.EscapeString(e.Element.ID), html.EscapeString(strings.Join(e.Classes, " ")))
	})
	r.Close.Add(func(_ context.Context, e *ElementEvent) {
		io.WriteString(e.W, `</div><!-- .element (end) -->`)
	})
	r.SectionOpen.Add(func(_ context.Context, e *SectionEvent) {
		id := ""
		if e.First {
			id = fmt.Sprintf(` id="%s"`, html.EscapeString("section-"+e.Section.ID))
		}
		fmt.Fprintf(e.W, `<section%s class="%s"%s><div class="section-inner">`, id, html.EscapeString(strings.Join(e.Classes, " ")), sectionStyle(e))
	})
	r.SectionClose.Add(func(_ context.Context, e *SectionEvent) {
		io.WriteString(e.W, `</div></section>`)
	})
	return r
}

// Handle installs the strategy for an element type, replacing any built-in.
func (r *Renderer) Handle(typ string, s Strategy) {
	if s == nil {
		delete(r.strategies, typ)
		return
	}
	r.strategies[typ] = s
}

// HandleBlock installs the strategy for a content block type.
func (r *Renderer) HandleBlock(typ string, s BlockStrategy) {
	if s == nil {
		delete(r.blocks, typ)
		return
	}
	r.blocks[typ] = s
}

type item struct {
	section *layout.Section
	element *layout.Element
}

// Render writes the markup of a whole layout, or of one location when
// req.Location is set. A missing layout or one without renderable elements
// produces a notice instead of an error. Errors are returned only for store
// failures and for writes to w that fail.
func (r *Renderer) Render(ctx context.Context, w io.Writer, req Request) error {
	ew := &errWriter{w: w}

	if strings.TrimSpace(req.LayoutID) == "" {
		notice(ew, "invalid-layout", "No custom layout was selected.")
		return ew.err
	}

	s := store.NewCached(r.store)
	doc, err := r.migrator.Load(ctx, s, req.LayoutID)
	if errors.Is(err, store.ErrNotFound) {
		notice(ew, "invalid-layout", "The custom layout could not be found.")
		return ew.err
	}
	if err != nil {
		return fmt.Errorf("load layout %s: %w", req.LayoutID, err)
	}

	items := r.visible(doc, req.Location)
	if len(items) == 0 {
		notice(ew, "invalid-layout", "This custom layout has no elements to display.")
		return ew.err
	}

	r.walk(ctx, ew, doc, req, items)
	return ew.err
}

// RenderLocation renders a single section of a layout.
func (r *Renderer) RenderLocation(ctx context.Context, w io.Writer, layoutID, location string, page int) error {
	return r.Render(ctx, w, Request{LayoutID: layoutID, Location: location, Page: page})
}

// visible lists elements of registered types, in order. Unknown types are
// dropped here so they neither render nor count.
func (r *Renderer) visible(doc *layout.Document, location string) []item {
	var out []item
	for si := range doc.Tree.Sections {
		sec := &doc.Tree.Sections[si]
		if location != "" && sec.ID != location {
			continue
		}
		for ei := range sec.Elements {
			el := &sec.Elements[ei]
			if !r.registry.IsElement(el.Type) {
				r.log.Debug().Str("layout_id", doc.LayoutID).Str("element_id", el.ID).Str("type", el.Type).Msg("skipping unknown element type")
				continue
			}
			out = append(out, item{section: sec, element: el})
		}
	}
	return out
}

func (r *Renderer) walk(ctx context.Context, w io.Writer, doc *layout.Document, req Request, items []item) {
	var (
		sectionIndex   int
		openSection    *SectionEvent
		previousPopout bool
		primaryClaimed bool
		seenSections   = make(map[string]bool)
	)

	open := func(sec *layout.Section, el *layout.Element, popout bool) {
		sectionIndex++
		ev := &SectionEvent{W: w, Section: sec, Index: sectionIndex, First: !seenSections[sec.ID]}
		seenSections[sec.ID] = true
		if popout {
			ev.Popout = el
		}
		ev.Classes = sectionClasses(ev)
		r.SectionOpen.Fire(ctx, ev)
		openSection = ev
	}
	closeSection := func() {
		if openSection != nil {
			r.SectionClose.Fire(ctx, openSection)
			openSection = nil
		}
	}

	total := len(items)
	for i, it := range items {
		popout := it.element.PopoutEligible()
		switch {
		case i == 0:
			open(it.section, it.element, popout)
		case popout || previousPopout || it.section != items[i-1].section:
			closeSection()
			open(it.section, it.element, popout)
		}

		q := Query{}
		if elements.IsPaginated(it.element.Type) && !primaryClaimed {
			q = Query{Primary: true, Page: req.Page}
			primaryClaimed = true
		}

		r.element(ctx, w, doc, req, it, i+1, total, q)
		previousPopout = popout
	}
	closeSection()
}

func (r *Renderer) element(ctx context.Context, w io.Writer, doc *layout.Document, req Request, it item, counter, total int, q Query) {
	el := it.element
	ev := &ElementEvent{
		W:         w,
		LayoutID:  doc.LayoutID,
		SectionID: it.section.ID,
		Element:   el,
		Counter:   counter,
		Total:     total,
	}
	ev.Classes = elementClasses(el, counter, total)
	ev = r.ElementClasses.Apply(ctx, ev)

	r.Before.Fire(ctx, ev)
	r.Open.Fire(ctx, ev)
	r.Top.Fire(ctx, ev)

	ec := &Context{
		Request:  req,
		Document: doc,
		Element:  el,
		Counter:  counter,
		Total:    total,
		Query:    q,
		renderer: r,
	}
	if s, ok := r.strategies[el.Type]; ok {
		if err := s.Render(ctx, w, ec); err != nil {
			r.log.Warn().Err(err).Str("layout_id", doc.LayoutID).Str("element_id", el.ID).Str("type", el.Type).Msg("element failed to render")
			notice(w, "element-error", "This element could not be displayed.")
		}
	} else {
		notice(w, "not-supported", fmt.Sprintf("The %q element is not supported by the current theme.", el.Type))
	}

	io.WriteString(w, `<div class="clear"></div>`)
	r.Bottom.Fire(ctx, ev)
	r.Close.Fire(ctx, ev)
	r.After.Fire(ctx, ev)
}

func notice(w io.Writer, kind, msg string) {
	fmt.Fprintf(w, `<div class="alert alert-warning tb-notice %s"><p>%s</p></div>`, kind, html.EscapeString(msg))
}

// errWriter keeps the first write error so hook callbacks need not check.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
