package parley

import (
	"errors"
	"fmt"

	"github.com/casualjim/parley/internal/link"
	"github.com/casualjim/parley/shape"
)

var (
	// ErrNotRegistered is matched by *NotRegisteredError.
	ErrNotRegistered = errors.New("link not registered")
	// ErrResolverUnavailable is returned when a service backed link is
	// registered or asked for on a broker without a Resolver.
	ErrResolverUnavailable = errors.New("no service resolver configured")
	// ErrServiceNotFound is matched by *ServiceNotFoundError.
	ErrServiceNotFound = errors.New("service not found")
	// ErrAdaptationFailed is matched by *AdaptationError.
	ErrAdaptationFailed = errors.New("adaptation failed")
	// ErrInvalidLink is returned by the register operations for an empty name,
	// a nil shape, a nil getter or a zero service key.
	ErrInvalidLink = link.ErrInvalid
)

// NotRegisteredError is returned when a link is asked for that has no provider.
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("there is no provider registered for %s.", e.Name)
}

func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// ServiceNotFoundError is returned when the resolver cannot produce the
// service behind a link.
type ServiceNotFoundError struct {
	Service ServiceKey
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service not found: %s", e.Service)
}

func (e *ServiceNotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}

// AdaptationError is returned when the data of a link cannot be adapted to
// the requested shape. Err holds the underlying cause, usually a
// *shape.IncompatibleError.
type AdaptationError struct {
	Link string
	From *shape.Shape
	To   *shape.Shape
	Err  error
}

func (e *AdaptationError) Error() string {
	return fmt.Sprintf("adapt link %s from %s to %s: %v", e.Link, e.From, e.To, e.Err)
}

func (e *AdaptationError) Is(target error) bool {
	return target == ErrAdaptationFailed
}

func (e *AdaptationError) Unwrap() error {
	return e.Err
}
