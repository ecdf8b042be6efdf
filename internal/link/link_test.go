package link

import (
	"context"
	"io"
	"reflect"
	"slices"
	"testing"

	"github.com/casualjim/parley/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	Value float64
}

type sensor interface {
	Read() reading
}

func TestNewGetter(t *testing.T) {
	provided := shape.MustOf[reading]()
	fn := func(context.Context, string) (any, error) { return reading{Value: 1}, nil }

	d, err := NewGetter(provided, fn)
	require.NoError(t, err)
	assert.Same(t, provided, d.Provided())
	assert.False(t, d.IsService())

	g, ok := d.Getter()
	require.True(t, ok)
	v, err := g(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, reading{Value: 1}, v)

	_, ok = d.Service()
	assert.False(t, ok)
}

func TestNewService(t *testing.T) {
	provided := shape.MustOf[reading]()
	key := KeyFor(reflect.TypeFor[sensor]())

	d, err := NewService(provided, key)
	require.NoError(t, err)
	assert.True(t, d.IsService())

	got, ok := d.Service()
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = d.Getter()
	assert.False(t, ok)
}

func TestDescriptorValidation(t *testing.T) {
	provided := shape.MustOf[reading]()
	fn := func(context.Context, string) (any, error) { return nil, nil }

	tests := []struct {
		name  string
		build func() (Descriptor, error)
	}{
		{"getter without shape", func() (Descriptor, error) { return NewGetter(nil, fn) }},
		{"nil getter", func() (Descriptor, error) { return NewGetter(provided, nil) }},
		{"service without shape", func() (Descriptor, error) { return NewService(nil, KeyFor(reflect.TypeFor[sensor]())) }},
		{"zero service key", func() (Descriptor, error) { return NewService(provided, ServiceKey{}) }},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestServiceKey(t *testing.T) {
	var zero ServiceKey
	assert.True(t, zero.IsZero())
	assert.Equal(t, "<none>", zero.String())
	assert.Equal(t, "", zero.ID())

	k := KeyFor(reflect.TypeFor[sensor]())
	assert.False(t, k.IsZero())
	assert.Equal(t, "link.sensor", k.String())
	assert.Equal(t, "github.com/casualjim/parley/internal/link.sensor", k.ID())
	assert.Equal(t, reflect.TypeFor[sensor](), k.Type())

	assert.Equal(t, k, KeyFor(reflect.TypeFor[sensor]()))
	assert.NotEqual(t, k.ID(), KeyFor(reflect.TypeFor[io.Closer]()).ID())
}
