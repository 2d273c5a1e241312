package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
)

var templates = template.Must(template.New("elements").Parse(`
{{define "divider"}}<div class="divider divider-{{.Type}}"{{if .Width}} style="max-width: {{.Width}}px"{{end}}></div>{{end}}
{{define "image"}}<div class="tb-image">{{if .Link}}<a href="{{.Link}}">{{end}}<img src="{{.Src}}" alt="{{.Caption}}">{{if .Link}}</a>{{end}}{{if .Caption}}<p class="caption">{{.Caption}}</p>{{end}}</div>{{end}}
{{define "jumbotron"}}<div class="jumbotron text-{{.Align}}">{{if .Title}}<h1>{{.Title}}</h1>{{end}}{{.Content}}</div>{{end}}
{{define "slogan"}}<div class="tb-slogan"><span class="slogan-text">{{.Text}}</span>{{if .Button}}<a class="btn btn-default" href="{{.URL}}">{{.ButtonText}}</a>{{end}}</div>{{end}}
{{define "video"}}<div class="tb-video">{{if .File}}<video src="{{.URL}}" controls></video>{{else}}<iframe src="{{.URL}}" allowfullscreen></iframe>{{end}}</div>{{end}}
{{define "columns"}}<div class="container-columns stack-{{.Stack}}">{{end}}
`))

var headlineTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}

var videoFiles = []string{".mp4", ".m4v", ".webm", ".ogv"}

func (r *Renderer) registerBuiltins() {
	r.Handle(layout.TypeColumns, StrategyFunc(renderColumns))
	r.Handle(layout.TypeContent, StrategyFunc(renderContent))
	r.Handle("divider", StrategyFunc(renderDivider))
	r.Handle("headline", StrategyFunc(renderHeadline))
	r.Handle("html", StrategyFunc(renderHTML))
	r.Handle("image", StrategyFunc(renderImage))
	r.Handle("jumbotron", StrategyFunc(renderJumbotron))
	r.Handle("slogan", StrategyFunc(renderSlogan))
	r.Handle("video", StrategyFunc(renderVideo))

	r.HandleBlock(elements.BlockCurrent, BlockStrategyFunc(r.renderCurrent))
	r.HandleBlock(elements.BlockPage, BlockStrategyFunc(r.renderPage))
	r.HandleBlock(elements.BlockRaw, BlockStrategyFunc(renderRaw))
	r.HandleBlock(elements.BlockWidget, BlockStrategyFunc(r.renderWidget))
}

func renderColumns(ctx context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	stack := o.String("stack")
	if stack == "" {
		stack = "md"
	}
	if err := templates.ExecuteTemplate(w, "columns", map[string]string{"Stack": stack}); err != nil {
		return err
	}
	widths := strings.Split(o.Map("setup").String("width"), "-")
	for n := 1; n <= ec.Element.ColumnCount(); n++ {
		width := ""
		if n <= len(widths) {
			width = widths[n-1]
		}
		fmt.Fprintf(w, `<div class="col col-%d %s">`, n, template.HTMLEscapeString(width))
		err := ec.RenderColumn(ctx, w, n)
		io.WriteString(w, `</div>`)
		if err != nil {
			io.WriteString(w, `</div>`)
			return err
		}
	}
	_, err := io.WriteString(w, `</div>`)
	return err
}

func renderContent(ctx context.Context, w io.Writer, ec *Context) error {
	io.WriteString(w, `<div class="content-blocks">`)
	err := ec.RenderColumn(ctx, w, 1)
	if _, werr := io.WriteString(w, `</div>`); err == nil {
		err = werr
	}
	return err
}

func renderDivider(_ context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	typ := o.String("type")
	if typ == "" {
		typ = "shadow"
	}
	width, _ := o.Int("width")
	data := struct {
		Type  string
		Width int
	}{typ, width}
	return templates.ExecuteTemplate(w, "divider", data)
}

func renderHeadline(_ context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	tag := strings.ToLower(o.String("tag"))
	if !headlineTags[tag] {
		tag = "h1"
	}
	align := o.String("align")
	if align == "" {
		align = "left"
	}
	esc := template.HTMLEscapeString
	fmt.Fprintf(w, `<div class="tb-headline text-%s"><%s>%s</%s>`, esc(align), tag, esc(o.String("text")), tag)
	if tagline := o.String("tagline"); tagline != "" {
		fmt.Fprintf(w, `<p class="tagline">%s</p>`, esc(tagline))
	}
	_, err := io.WriteString(w, `</div>`)
	return err
}

func renderHTML(_ context.Context, w io.Writer, ec *Context) error {
	_, err := io.WriteString(w, ec.Sanitize(ec.Element.Options.String("html")))
	return err
}

func renderImage(_ context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	src := o.Map("image").String("src")
	if src == "" {
		src = o.String("image")
	}
	if src == "" {
		return errors.New("image element without a source")
	}
	data := struct{ Src, Link, Caption string }{src, o.String("link"), o.String("caption")}
	return templates.ExecuteTemplate(w, "image", data)
}

func renderJumbotron(_ context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	align := o.String("text_align")
	if align == "" {
		align = "left"
	}
	data := struct {
		Title   string
		Content template.HTML
		Align   string
	}{o.String("title"), template.HTML(ec.Sanitize(o.String("content"))), align}
	return templates.ExecuteTemplate(w, "jumbotron", data)
}

func renderSlogan(_ context.Context, w io.Writer, ec *Context) error {
	o := ec.Element.Options
	data := struct {
		Text, URL, ButtonText string
		Button                bool
	}{o.String("slogan"), o.String("button_url"), o.String("button_text"), o.Bool("button") && o.String("button_url") != ""}
	return templates.ExecuteTemplate(w, "slogan", data)
}

func renderVideo(_ context.Context, w io.Writer, ec *Context) error {
	url := strings.TrimSpace(ec.Element.Options.String("video"))
	if url == "" {
		return errors.New("video element without a URL")
	}
	file := false
	for _, ext := range videoFiles {
		if strings.HasSuffix(strings.ToLower(url), ext) {
			file = true
			break
		}
	}
	data := struct {
		URL  string
		File bool
	}{url, file}
	return templates.ExecuteTemplate(w, "video", data)
}

func (r *Renderer) renderCurrent(_ context.Context, w io.Writer, ec *Context, _ *layout.Block) error {
	if ec.Request.Post == nil {
		notice(w, "no-post", "There is no current page to display here.")
		return nil
	}
	_, err := io.WriteString(w, r.sanitize(ec.Request.Post.Content))
	return err
}

func (r *Renderer) renderPage(ctx context.Context, w io.Writer, _ *Context, b *layout.Block) error {
	id := b.Options.String("page_id")
	if id == "" {
		return errors.New("page block without a page")
	}
	if r.Pages == nil {
		return errors.New("no page source configured")
	}
	content, err := r.Pages.PageContent(ctx, id)
	if err != nil {
		return fmt.Errorf("page %s: %w", id, err)
	}
	_, err = io.WriteString(w, r.sanitize(content))
	return err
}

func (r *Renderer) renderWidget(ctx context.Context, w io.Writer, _ *Context, b *layout.Block) error {
	sidebar := b.Options.String("sidebar")
	if sidebar == "" {
		return errors.New("widget block without a sidebar")
	}
	if r.Widgets == nil {
		return errors.New("no widget source configured")
	}
	content, err := r.Widgets.WidgetArea(ctx, sidebar)
	if err != nil {
		return fmt.Errorf("widget area %s: %w", sidebar, err)
	}
	_, err = fmt.Fprintf(w, `<div class="widget-area">%s</div>`, r.sanitize(content))
	return err
}

// renderRaw writes "text" formatted blocks as escaped paragraphs and
// everything else as sanitized HTML.
func renderRaw(_ context.Context, w io.Writer, ec *Context, b *layout.Block) error {
	text := b.Options.String("text")
	if b.Options.String("format") != "text" {
		_, err := io.WriteString(w, ec.Sanitize(text))
		return err
	}
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines := strings.Split(template.HTMLEscapeString(p), "\n")
		if _, err := fmt.Fprintf(w, "<p>%s</p>", strings.Join(lines, "<br>")); err != nil {
			return err
		}
	}
	return nil
}
