package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Cached memoizes meta reads for the lifetime of one request, so walking a
// layout can ask for the same value repeatedly. Writes go through and
// refresh the memo. Do not share one across requests.
type Cached struct {
	Store
	memo map[string]cachedValue
}

type cachedValue struct {
	raw     json.RawMessage
	missing bool
}

func NewCached(s Store) *Cached {
	if c, ok := s.(*Cached); ok {
		return c
	}
	return &Cached{Store: s, memo: make(map[string]cachedValue)}
}

func memoKey(layoutID, key string) string { return layoutID + "\x00" + key }

func (c *Cached) GetMeta(ctx context.Context, layoutID, key string) (json.RawMessage, error) {
	if v, ok := c.memo[memoKey(layoutID, key)]; ok {
		if v.missing {
			return nil, ErrNotFound
		}
		return v.raw, nil
	}
	raw, err := c.Store.GetMeta(ctx, layoutID, key)
	switch {
	case errors.Is(err, ErrNotFound):
		c.memo[memoKey(layoutID, key)] = cachedValue{missing: true}
	case err == nil:
		c.memo[memoKey(layoutID, key)] = cachedValue{raw: raw}
	}
	return raw, err
}

func (c *Cached) SetMeta(ctx context.Context, layoutID, key string, value json.RawMessage) error {
	if err := c.Store.SetMeta(ctx, layoutID, key, value); err != nil {
		delete(c.memo, memoKey(layoutID, key))
		return err
	}
	c.memo[memoKey(layoutID, key)] = cachedValue{raw: value}
	return nil
}

func (c *Cached) DeleteMeta(ctx context.Context, layoutID, key string) error {
	delete(c.memo, memoKey(layoutID, key))
	return c.Store.DeleteMeta(ctx, layoutID, key)
}

func (c *Cached) DeleteLayout(ctx context.Context, id string) error {
	c.memo = make(map[string]cachedValue)
	return c.Store.DeleteLayout(ctx, id)
}

// Transaction wraps the inner transaction in a fresh memo. The outer memo is
// dropped afterwards whatever the outcome.
func (c *Cached) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := c.Store.Transaction(ctx, func(tx Store) error {
		return fn(NewCached(tx))
	})
	c.memo = make(map[string]cachedValue)
	return err
}

var _ Store = (*Cached)(nil)
