package elements

import "layout-builder/internal/domain/layout"

// Block types.
const (
	BlockCurrent = "current"
	BlockPage    = "page"
	BlockRaw     = "raw"
	BlockWidget  = "widget"
)

func builtinElements() []Spec {
	postQuery := func() layout.Options {
		return layout.Options{"source": "category", "categories": map[string]any{"all": "1"}, "orderby": "date", "order": "DESC"}
	}
	grid := func() layout.Options {
		o := postQuery()
		o["columns"] = "3"
		o["rows"] = "3"
		o["crop"] = "tb_grid"
		return o
	}
	list := func() layout.Options {
		o := postQuery()
		o["posts_per_page"] = "6"
		return o
	}
	slider := func() layout.Options {
		return layout.Options{"fx": "slide", "timeout": "3", "nav_standard": "1", "nav_arrows": "1"}
	}

	return []Spec{
		{Type: "columns", Name: "Columns", Defaults: layout.Options{"setup": map[string]any{"num": "2", "width": "grid_6-grid_6"}, "stack": "md"}},
		{Type: "content", Name: "Content", Defaults: layout.Options{}},
		{Type: "divider", Name: "Divider", Defaults: layout.Options{"type": "shadow", "width": ""}},
		{Type: "headline", Name: "Headline", Defaults: layout.Options{"text": "", "tagline": "", "tag": "h1", "align": "left"}},
		{Type: "html", Name: "HTML", Defaults: layout.Options{"html": ""}},
		{Type: "image", Name: "Image", Defaults: layout.Options{"image": map[string]any{"src": ""}, "link": "", "caption": ""}},
		{Type: "jumbotron", Name: "Jumbotron", Defaults: layout.Options{"title": "", "content": "", "text_align": "left"}},
		{Type: "map", Name: "Map", Defaults: layout.Options{"zoom": "15", "height": "400"}},
		{Type: "milestones", Name: "Milestones", Defaults: layout.Options{"milestones": []any{}}},
		{Type: "post_grid", Name: "Post Grid", Defaults: grid()},
		{Type: "post_grid_paginated", Name: "Paginated Post Grid", Defaults: grid()},
		{Type: "post_grid_slider", Name: "Post Grid Slider", Defaults: grid()},
		{Type: "post_list", Name: "Post List", Defaults: list()},
		{Type: "post_list_paginated", Name: "Paginated Post List", Defaults: list()},
		{Type: "post_list_slider", Name: "Post List Slider", Defaults: list()},
		{Type: "post_slider", Name: "Post Slider", Defaults: slider()},
		{Type: "simple_slider", Name: "Simple Slider", Defaults: slider()},
		{Type: "simple_slider_popout", Name: "Simple Slider Popout", Defaults: slider()},
		{Type: "slider", Name: "Slider", Defaults: layout.Options{"slider_id": "", "slider_type": "standard"}},
		{Type: "slogan", Name: "Slogan", Defaults: layout.Options{"slogan": "", "button": "0", "button_text": "", "button_url": ""}},
		{Type: "tabs", Name: "Tabs", Defaults: layout.Options{"setup": map[string]any{"num": "3", "style": "framed"}}, Deprecated: true},
		{Type: "video", Name: "Video", Defaults: layout.Options{"video": ""}},
	}
}

func builtinBlocks() []Spec {
	return []Spec{
		{Type: BlockCurrent, Name: "Current Page", Defaults: layout.Options{}},
		{Type: BlockPage, Name: "External Page", Defaults: layout.Options{"page_id": ""}},
		{Type: BlockRaw, Name: "Raw Content", Defaults: layout.Options{"text": "", "format": "html"}},
		{Type: BlockWidget, Name: "Widget Area", Defaults: layout.Options{"sidebar": ""}},
	}
}
