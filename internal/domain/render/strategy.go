package render

import (
	"context"
	"fmt"
	"html"
	"io"

	"layout-builder/internal/domain/layout"
)

// Context is what a strategy knows about the element it renders.
type Context struct {
	Request  Request
	Document *layout.Document
	Element  *layout.Element
	// Counter is the 1-based position among rendered elements.
	Counter int
	Total   int
	Query   Query

	renderer *Renderer
}

// Column returns the blocks of column n of the element, loading them on
// first use.
func (c *Context) Column(ctx context.Context, n int) ([]layout.Block, error) {
	return c.Document.ElementColumn(ctx, c.Element, n)
}

// RenderColumn writes every block of column n in order.
func (c *Context) RenderColumn(ctx context.Context, w io.Writer, n int) error {
	blocks, err := c.Column(ctx, n)
	if err != nil {
		return err
	}
	for i := range blocks {
		c.renderer.block(ctx, w, c, &blocks[i])
	}
	return nil
}

// Sanitize runs raw HTML through the renderer's policy.
func (c *Context) Sanitize(s string) string {
	return c.renderer.sanitize(s)
}

// Strategy renders the body of one element type.
type Strategy interface {
	Render(ctx context.Context, w io.Writer, ec *Context) error
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, w io.Writer, ec *Context) error

func (f StrategyFunc) Render(ctx context.Context, w io.Writer, ec *Context) error {
	return f(ctx, w, ec)
}

// BlockStrategy renders one content block type.
type BlockStrategy interface {
	RenderBlock(ctx context.Context, w io.Writer, ec *Context, b *layout.Block) error
}

type BlockStrategyFunc func(ctx context.Context, w io.Writer, ec *Context, b *layout.Block) error

func (f BlockStrategyFunc) RenderBlock(ctx context.Context, w io.Writer, ec *Context, b *layout.Block) error {
	return f(ctx, w, ec, b)
}

func (r *Renderer) sanitize(s string) string {
	if r.Policy == nil {
		return s
	}
	return r.Policy.Sanitize(s)
}

func (r *Renderer) block(ctx context.Context, w io.Writer, ec *Context, b *layout.Block) {
	if !r.registry.IsBlock(b.Type) {
		r.log.Debug().Str("element_id", ec.Element.ID).Str("block_id", b.ID).Str("type", b.Type).Msg("skipping unknown block type")
		return
	}
	fmt.Fprintf(w, `<div id="%s" class="element-block block-%s">`, html.EscapeString(b.ID), html.EscapeString(b.Type))
	if s, ok := r.blocks[b.Type]; ok {
		if err := s.RenderBlock(ctx, w, ec, b); err != nil {
			r.log.Warn().Err(err).Str("element_id", ec.Element.ID).Str("block_id", b.ID).Msg("block failed to render")
			notice(w, "block-error", "This content could not be displayed.")
		}
	} else {
		notice(w, "not-supported", fmt.Sprintf("The %q content block is not supported by the current theme.", b.Type))
	}
	io.WriteString(w, `</div>`)
}
