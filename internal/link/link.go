// Package link holds what is registered for a communication link: the
// declared output shape and where the data comes from.
package link

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/casualjim/parley/pkg/reflectx"
	"github.com/casualjim/parley/shape"
)

// ErrInvalid is returned when a descriptor cannot be built from its inputs.
var ErrInvalid = errors.New("invalid link")

// Getter produces the data for a link from the caller's data string.
type Getter func(ctx context.Context, data string) (any, error)

// ServiceKey identifies a service capability by its Go type.
type ServiceKey struct {
	typ reflect.Type
}

// KeyFor returns the key for type t.
func KeyFor(t reflect.Type) ServiceKey {
	return ServiceKey{typ: t}
}

func (k ServiceKey) Type() reflect.Type { return k.typ }

func (k ServiceKey) IsZero() bool { return k.typ == nil }

func (k ServiceKey) String() string {
	if k.typ == nil {
		return "<none>"
	}
	return k.typ.String()
}

// ID is a process wide unique name for the key, usable as a map key where
// reflect.Type is not.
func (k ServiceKey) ID() string {
	return reflectx.TypeName(k.typ)
}

// Descriptor is what the registry stores for one link. It is either getter
// backed or service backed, never both.
type Descriptor struct {
	provided *shape.Shape
	getter   Getter
	service  ServiceKey
}

// NewGetter returns a getter backed descriptor.
func NewGetter(provided *shape.Shape, fn Getter) (Descriptor, error) {
	if provided == nil {
		return Descriptor{}, fmt.Errorf("%w: provided shape is required", ErrInvalid)
	}
	if fn == nil {
		return Descriptor{}, fmt.Errorf("%w: getter is required", ErrInvalid)
	}
	return Descriptor{provided: provided, getter: fn}, nil
}

// NewService returns a descriptor that resolves key on every request.
func NewService(provided *shape.Shape, key ServiceKey) (Descriptor, error) {
	if provided == nil {
		return Descriptor{}, fmt.Errorf("%w: provided shape is required", ErrInvalid)
	}
	if key.IsZero() {
		return Descriptor{}, fmt.Errorf("%w: service key is required", ErrInvalid)
	}
	return Descriptor{provided: provided, service: key}, nil
}

func (d Descriptor) Provided() *shape.Shape { return d.provided }

func (d Descriptor) Getter() (Getter, bool) {
	return d.getter, d.getter != nil
}

func (d Descriptor) Service() (ServiceKey, bool) {
	return d.service, !d.service.IsZero()
}

func (d Descriptor) IsService() bool {
	return !d.service.IsZero()
}
