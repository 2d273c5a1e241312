package layout

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe base slug from a layout name.
// Example: "Home Page (v2)" -> "home-page-v2"
func MakeSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "layout"
	}
	return base
}

// SlugChecker reports whether slug is taken by a layout other than exceptID.
type SlugChecker func(ctx context.Context, slug, exceptID string) (bool, error)

// UniqueSlug returns the canonical slug for name, suffixing -2, -3, ... until
// exists reports it free.
func UniqueSlug(ctx context.Context, name, exceptID string, exists SlugChecker) (string, error) {
	base := MakeSlug(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, slug, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
