package site

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("site content not found")

// Source resolves page and widget content blocks from the database.
type Source struct {
	db *gorm.DB
}

func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

// PageContent returns the content of a published page. ref is a page ID, a
// slug, or the numeric ID that migrated blocks carry over from the old
// editor. A numeric ref matching both a legacy ID and a slug resolves to the
// legacy ID.
func (s *Source) PageContent(ctx context.Context, ref string) (string, error) {
	q := s.db.WithContext(ctx).Where("status = ?", StatusPublished)
	if _, err := uuid.Parse(ref); err == nil {
		q = q.Where("id = ?", ref)
	} else if n, err := strconv.ParseInt(ref, 10, 64); err == nil {
		q = q.Where(s.db.Where("legacy_id = ?", n).Or("slug = ?", ref)).
			Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:                "(legacy_id IS NOT DISTINCT FROM ?) DESC",
				Vars:               []any{n},
				WithoutParentheses: true,
			}})
	} else {
		q = q.Where("slug = ?", ref)
	}

	var p Page
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: page %s", ErrNotFound, ref)
		}
		return "", err
	}
	return p.Content, nil
}

// WidgetArea returns the content of a sidebar. An unknown sidebar is empty.
func (s *Source) WidgetArea(ctx context.Context, sidebar string) (string, error) {
	var w WidgetArea
	err := s.db.WithContext(ctx).First(&w, "sidebar = ?", sidebar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return w.Content, nil
}
