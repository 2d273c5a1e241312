package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionFiresInOrder(t *testing.T) {
	var a Action[string]
	var got []string

	a.Add(func(_ context.Context, v string) { got = append(got, "first:"+v) })
	a.Add(nil)
	a.Add(func(_ context.Context, v string) { got = append(got, "second:"+v) })

	a.Fire(context.Background(), "x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
	assert.Equal(t, 2, a.Len())
}

func TestActionWithoutListeners(t *testing.T) {
	var a Action[int]
	assert.NotPanics(t, func() { a.Fire(context.Background(), 1) })
}

func TestFilterChains(t *testing.T) {
	var f Filter[[]string]
	f.Add(func(_ context.Context, v []string) []string { return append(v, "b") })
	f.Add(func(_ context.Context, v []string) []string { return append(v, "c") })

	out := f.Apply(context.Background(), []string{"a"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}
