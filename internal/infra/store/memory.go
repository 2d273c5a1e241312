package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"layout-builder/internal/domain/layout"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Used by tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]layout.Layout
	meta    map[string]map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		layouts: make(map[string]layout.Layout),
		meta:    make(map[string]map[string]json.RawMessage),
	}
}

func (s *MemoryStore) CreateLayout(_ context.Context, l *layout.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	s.layouts[l.ID] = *l
	return nil
}

func (s *MemoryStore) GetLayout(_ context.Context, id string) (*layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) ListLayouts(_ context.Context) ([]layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]layout.Layout, 0, len(s.layouts))
	for _, l := range s.layouts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpdateLayout(_ context.Context, l *layout.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.layouts[l.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Slug, cur.UpdatedAt = l.Name, l.Slug, time.Now()
	s.layouts[l.ID] = cur
	return nil
}

func (s *MemoryStore) DeleteLayout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[id]; !ok {
		return ErrNotFound
	}
	delete(s.layouts, id)
	delete(s.meta, id)
	return nil
}

func (s *MemoryStore) SlugExists(_ context.Context, slug, exceptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, l := range s.layouts {
		if l.Slug == slug && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetMeta(_ context.Context, layoutID, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.meta[layoutID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *MemoryStore) SetMeta(_ context.Context, layoutID, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meta[layoutID]
	if !ok {
		m = make(map[string]json.RawMessage)
		s.meta[layoutID] = m
	}
	m[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *MemoryStore) DeleteMeta(_ context.Context, layoutID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.meta[layoutID], key)
	return nil
}

func (s *MemoryStore) MetaKeys(_ context.Context, layoutID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.meta[layoutID]))
	for k := range s.meta[layoutID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Transaction runs fn on a copy and swaps the copy in on success.
func (s *MemoryStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.snapshot()
	if err := fn(tx); err != nil {
		return err
	}
	s.layouts, s.meta = tx.layouts, tx.meta
	return nil
}

func (s *MemoryStore) snapshot() *MemoryStore {
	cp := NewMemoryStore()
	for id, l := range s.layouts {
		cp.layouts[id] = l
	}
	for id, m := range s.meta {
		mm := make(map[string]json.RawMessage, len(m))
		for k, v := range m {
			mm[k] = v
		}
		cp.meta[id] = mm
	}
	return cp
}

// Dump returns a copy of every meta value of a layout.
func (s *MemoryStore) Dump(layoutID string) map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.meta[layoutID]))
	for k, v := range s.meta[layoutID] {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
