// Package hooks is the action/filter bus other packages expose as extension
// points. Callbacks run synchronously in registration order.
package hooks

import (
	"context"
	"sync"
)

// Action is a named event that callbacks can listen to.
type Action[T any] struct {
	mu  sync.RWMutex
	fns []func(context.Context, T)
}

// Add registers fn to run every time the action fires.
func (a *Action[T]) Add(fn func(context.Context, T)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fns = append(a.fns, fn)
}

// Fire calls every registered callback with v.
func (a *Action[T]) Fire(ctx context.Context, v T) {
	a.mu.RLock()
	fns := a.fns
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, v)
	}
}

// Len reports how many callbacks are registered.
func (a *Action[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.fns)
}

// Filter passes a value through every registered callback, each receiving the
// previous one's result.
type Filter[T any] struct {
	mu  sync.RWMutex
	fns []func(context.Context, T) T
}

// Add registers fn as the next stage of the filter.
func (f *Filter[T]) Add(fn func(context.Context, T) T) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
}

// Apply runs v through the chain and returns the final value.
func (f *Filter[T]) Apply(ctx context.Context, v T) T {
	f.mu.RLock()
	fns := f.fns
	f.mu.RUnlock()

	for _, fn := range fns {
		v = fn(ctx, v)
	}
	return v
}
