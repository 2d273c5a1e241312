package layout

import (
	"encoding/json"
	"errors"
	"time"
)

// PluginVersion is the current version of the layout data model. Layouts
// saved by older versions are upgraded on load.
const PluginVersion = "2.7.0"

// Meta keys stored per layout.
const (
	MetaElements = "elements"
	MetaSections = "sections"

	MetaPluginVersionCreated    = "plugin_version_created"
	MetaPluginVersionSaved      = "plugin_version_saved"
	MetaFrameworkVersionCreated = "framework_version_created"
	MetaFrameworkVersionSaved   = "framework_version_saved"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrElementNotFound  = errors.New("element not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrNotColumnar      = errors.New("element has no columns")
)

type Layout struct {
	ID   string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"not null;uniqueIndex" json:"slug"`

	Meta []Meta `gorm:"foreignKey:LayoutID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta is one (layout_id, meta_key) row. Values are JSON documents.
type Meta struct {
	LayoutID string          `gorm:"type:uuid;primaryKey" json:"layout_id"`
	Key      string          `gorm:"column:meta_key;primaryKey" json:"key"`
	Value    json.RawMessage `gorm:"column:meta_value;type:jsonb;not null;default:'null'" json:"value"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Meta) TableName() string { return "layout_meta" }
