// Package site holds the site content that layouts pull in by reference:
// pages shown by "page" content blocks and the widget areas shown by
// "widget" blocks.
package site

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Page is a page whose content "page" blocks show. LegacyID is the numeric
// ID the page had before import; old layouts reference pages by it.
type Page struct {
	ID       string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LegacyID *int64 `gorm:"uniqueIndex" json:"legacy_id,omitempty"`
	Slug     string `gorm:"not null;uniqueIndex" json:"slug"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text;not null;default:''" json:"content"`
	Status   string `gorm:"not null;default:'draft'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Page) TableName() string { return "site_pages" }

// WidgetArea is the rendered content of one sidebar.
type WidgetArea struct {
	Sidebar string `gorm:"primaryKey" json:"sidebar"`
	Content string `gorm:"type:text;not null;default:''" json:"content"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (WidgetArea) TableName() string { return "site_widget_areas" }
