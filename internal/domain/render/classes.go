package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"layout-builder/internal/domain/elements"
	"layout-builder/internal/domain/layout"
)

var devices = []string{"standard", "tablet", "mobile"}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

func elementClasses(el *layout.Element, counter, total int) []string {
	classes := []string{"element", "element-" + strconv.Itoa(counter), "element-" + el.Type}
	if counter == 1 {
		classes = append(classes, "first-element")
	}
	if counter == total {
		classes = append(classes, "last-element")
	}
	if el.Type == "slider" {
		if st := el.Options.String("slider_type"); st != "" {
			classes = append(classes, "element-slider-"+st)
		}
	}
	if elements.IsPaginated(el.Type) {
		classes = append(classes, "paginated")
	}
	if el.Display.Bool("apply_padding") {
		classes = append(classes, "has-custom-padding")
	}
	if el.PopoutEligible() {
		classes = append(classes, "popout")
	}
	classes = append(classes, visibilityClasses(el.Display)...)
	classes = append(classes, strings.Fields(el.Display.String("classes"))...)
	return classes
}

// visibilityClasses reads display.visibility, either a bag of
// hide_on_{device} flags or a space separated list of them.
func visibilityClasses(display layout.Options) []string {
	var out []string
	if vis := display.Map("visibility"); vis != nil {
		for _, d := range devices {
			if vis.Bool("hide_on_" + d) {
				out = append(out, "hide_on_"+d)
			}
		}
		return out
	}
	set := make(map[string]bool)
	for _, f := range strings.Fields(display.String("visibility")) {
		set[f] = true
	}
	for _, d := range devices {
		if set["hide_on_"+d] {
			out = append(out, "hide_on_"+d)
		}
	}
	return out
}

// sectionDisplay is the bag that styles a section wrapper: the pop-out
// element's display when there is one, else the stored section's.
func sectionDisplay(e *SectionEvent) layout.Options {
	if e.Popout != nil {
		return e.Popout.Display
	}
	return e.Section.Display
}

func sectionClasses(e *SectionEvent) []string {
	classes := []string{"element-section", fmt.Sprintf("element-section-%d", e.Index)}
	if e.Popout != nil {
		classes = append(classes, "popout-section")
	}
	display := sectionDisplay(e)
	if bg := display.String("bg_type"); bg != "" && bg != "none" {
		classes = append(classes, "has-bg", "bg-"+bg)
	}
	if e.Popout == nil {
		classes = append(classes, strings.Fields(display.String("classes"))...)
	}
	return classes
}

func sectionStyle(e *SectionEvent) string {
	c := strings.TrimSpace(sectionDisplay(e).String("bg_color"))
	if !hexColor.MatchString(c) {
		return ""
	}
	return fmt.Sprintf(` style="background-color: %s"`, c)
}
