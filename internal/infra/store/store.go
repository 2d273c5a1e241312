// Package store persists layouts and their meta values.
//
// Every value is last-write-wins per key. Two editors saving the same layout
// overwrite each other; nothing here detects it.
package store

import (
	"context"
	"encoding/json"

	"layout-builder/internal/domain/layout"
)

// ErrNotFound is returned for missing layouts and meta keys.
var ErrNotFound = layout.ErrNotFound

// Store is the persistence seam used by the migrator, the renderer and the
// admin endpoints.
type Store interface {
	CreateLayout(ctx context.Context, l *layout.Layout) error
	GetLayout(ctx context.Context, id string) (*layout.Layout, error)
	ListLayouts(ctx context.Context) ([]layout.Layout, error)
	UpdateLayout(ctx context.Context, l *layout.Layout) error
	DeleteLayout(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, exceptID string) (bool, error)

	GetMeta(ctx context.Context, layoutID, key string) (json.RawMessage, error)
	SetMeta(ctx context.Context, layoutID, key string, value json.RawMessage) error
	DeleteMeta(ctx context.Context, layoutID, key string) error
	MetaKeys(ctx context.Context, layoutID string) ([]string, error)

	// Transaction runs fn against a store whose writes become visible only
	// if fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
