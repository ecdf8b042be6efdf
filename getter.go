package parley

import (
	"context"
	"fmt"
	"reflect"

	"github.com/casualjim/parley/internal/link"
	"github.com/casualjim/parley/pkg/stdx"
	"github.com/casualjim/parley/shape"
)

// Provide registers fn as the provider of link name, declaring T as its
// output shape.
func Provide[T any](b Broker, name string, fn func(ctx context.Context, data string) (T, error)) error {
	provided, err := shape.Of[T]()
	if err != nil {
		return fmt.Errorf("provide %s: %w", name, err)
	}
	if fn == nil {
		return b.RegisterGetter(name, provided, nil)
	}
	return b.RegisterGetter(name, provided, func(ctx context.Context, data string) (any, error) {
		return fn(ctx, data)
	})
}

// ProvideService registers link name as backed by service S, resolved per
// request, which produces values of T.
func ProvideService[T any, S GetterProvider](b Broker, name string) error {
	provided, err := shape.Of[T]()
	if err != nil {
		return fmt.Errorf("provide %s: %w", name, err)
	}
	return b.RegisterGetterService(name, provided, ServiceOf[S]())
}

// ServiceOf returns the key for service type S.
func ServiceOf[S any]() ServiceKey {
	return link.KeyFor(reflect.TypeFor[S]())
}

// Ask asks link name for data and returns it as a T.
func Ask[T any](ctx context.Context, b Broker, name, data string) (T, error) {
	requested, err := shape.Of[T]()
	if err != nil {
		return stdx.Zero[T](), fmt.Errorf("ask %s: %w", name, err)
	}

	v, err := b.AskFor(ctx, requested, name, data)
	if err != nil {
		return stdx.Zero[T](), err
	}
	if v == nil {
		return stdx.Zero[T](), nil
	}
	res, ok := v.(T)
	if !ok {
		return stdx.Zero[T](), &AdaptationError{
			Link: name,
			To:   requested,
			Err:  fmt.Errorf("got %T, want %s", v, requested),
		}
	}
	return res, nil
}
