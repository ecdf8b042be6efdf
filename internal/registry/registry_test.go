package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Put("a", 1)
	r.Put("b", 2)
	r.Put("a", 3)

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Names())

	r.Remove("a")
	r.Remove("a")
	r.Remove("never")

	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, r.Names())
}

func TestRegistryGetOrAdd(t *testing.T) {
	r := New[string]()

	calls := 0
	mk := func() string {
		calls++
		return "made"
	}

	v, loaded := r.GetOrAdd("k", mk)
	assert.False(t, loaded)
	assert.Equal(t, "made", v)

	v, loaded = r.GetOrAdd("k", mk)
	assert.True(t, loaded)
	assert.Equal(t, "made", v)
	assert.Equal(t, 1, calls)
}

func TestRegistryConcurrent(t *testing.T) {
	r := New[int]()

	var g errgroup.Group
	for i := range 16 {
		g.Go(func() error {
			name := fmt.Sprintf("link-%d", i%4)
			for j := range 200 {
				r.Put(name, j)
				_, _ = r.Get(name)
				_ = r.Names()
				if j%10 == 0 {
					r.Remove(name)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, r.Len(), 4)
}
