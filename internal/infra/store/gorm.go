package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"layout-builder/internal/domain/layout"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps layouts in the layouts table and their values in
// layout_meta (jsonb).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateLayout(ctx context.Context, l *layout.Layout) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) GetLayout(ctx context.Context, id string) (*layout.Layout, error) {
	var l layout.Layout
	if err := s.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (s *GormStore) ListLayouts(ctx context.Context) ([]layout.Layout, error) {
	var out []layout.Layout
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateLayout(ctx context.Context, l *layout.Layout) error {
	res := s.db.WithContext(ctx).
		Model(&layout.Layout{}).
		Where("id = ?", l.ID).
		Updates(map[string]interface{}{
			"name":       l.Name,
			"slug":       l.Slug,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteLayout(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("layout_id = ?", id).Delete(&layout.Meta{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&layout.Layout{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) SlugExists(ctx context.Context, slug, exceptID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&layout.Layout{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) GetMeta(ctx context.Context, layoutID, key string) (json.RawMessage, error) {
	var row layout.Meta
	if err := s.db.WithContext(ctx).
		First(&row, "layout_id = ? AND meta_key = ?", layoutID, key).Error; err != nil {
		return nil, mapErr(err)
	}
	return row.Value, nil
}

func (s *GormStore) SetMeta(ctx context.Context, layoutID, key string, value json.RawMessage) error {
	row := layout.Meta{LayoutID: layoutID, Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "layout_id"}, {Name: "meta_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *GormStore) DeleteMeta(ctx context.Context, layoutID, key string) error {
	return s.db.WithContext(ctx).
		Where("layout_id = ? AND meta_key = ?", layoutID, key).
		Delete(&layout.Meta{}).Error
}

func (s *GormStore) MetaKeys(ctx context.Context, layoutID string) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).
		Model(&layout.Meta{}).
		Where("layout_id = ?", layoutID).
		Order("meta_key ASC").
		Pluck("meta_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var _ Store = (*GormStore)(nil)
