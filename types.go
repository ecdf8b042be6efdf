package parley

import (
	"context"

	"github.com/casualjim/parley/internal/link"
	"github.com/casualjim/parley/shape"
)

// GetterFunc produces the data of a link. It receives the data string the
// caller passed to AskFor and must return a value of the link's provided
// shape. It runs synchronously on the caller's goroutine.
type GetterFunc = link.Getter

// ServiceKey identifies a service type the Resolver knows how to build.
// Use ServiceOf to obtain one.
type ServiceKey = link.ServiceKey

// Broker connects producers and consumers of data through named links.
type Broker interface {
	// RegisterGetter registers fn as the provider of link name. An existing
	// registration under the same name is replaced.
	RegisterGetter(name string, provided *shape.Shape, fn GetterFunc) error
	// RegisterGetterService registers a link whose provider is resolved from
	// the configured Resolver on every request. It fails with
	// ErrResolverUnavailable when the broker has no resolver.
	RegisterGetterService(name string, provided *shape.Shape, service ServiceKey) error
	// RemoveGetter unregisters link name. It is a no-op for unknown names.
	RemoveGetter(name string)
	// AskFor returns the data of link name adapted to the requested shape.
	AskFor(ctx context.Context, requested *shape.Shape, name, data string) (any, error)

	// Links lists the registered links sorted by name.
	Links() []LinkInfo
	// Describe returns what is registered under name.
	Describe(name string) (LinkInfo, bool)
}

// GetterProvider is the data capability a service must implement to back a
// link.
type GetterProvider interface {
	GetData(ctx context.Context, data string) (any, error)
}

// Resolver creates resolution scopes for service backed links.
type Resolver interface {
	CreateScope(ctx context.Context) (Scope, error)
}

// Scope resolves services for the duration of one request. The broker
// releases every scope it creates before AskFor returns.
type Scope interface {
	Resolve(key ServiceKey) (GetterProvider, bool)
	Release() error
}

type LinkKind uint8

const (
	GetterLink LinkKind = iota
	ServiceLink
)

func (k LinkKind) String() string {
	switch k {
	case GetterLink:
		return "getter"
	case ServiceLink:
		return "service"
	default:
		return "unknown"
	}
}

// LinkInfo describes a registered link.
type LinkInfo struct {
	Name     string
	Kind     LinkKind
	Provided *shape.Shape
	// Service is set for service backed links.
	Service ServiceKey
}
