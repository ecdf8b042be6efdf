// Package container is a small service container that resolves the services
// behind service backed parley links. It implements parley.Resolver.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/internal/registry"
	"github.com/casualjim/parley/pkg/reflectx"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/casualjim/parley/pkg/uuidx"
	"github.com/fogfish/opts"
)

var _ parley.Resolver = (*Container)(nil)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrScopeReleased  = errors.New("scope released")
	ErrCycle          = errors.New("dependency cycle")
)

// Lifetime controls how often a service is built.
type Lifetime uint8

const (
	// Singleton services are built once per container.
	Singleton Lifetime = iota
	// Scoped services are built once per scope.
	Scoped
	// Transient services are built on every resolve.
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Factory builds a service. Dependencies are resolved from scope with Get,
// passing ctx along.
type Factory[S any] func(ctx context.Context, scope *Scope) (S, error)

type registration struct {
	key      parley.ServiceKey
	lifetime Lifetime
	build    func(ctx context.Context, scope *Scope) (any, error)
	single   *singleton
}

type singleton struct {
	mu    sync.Mutex
	built bool
	value any
}

type Container struct {
	services registry.Registry[*registration]
	logger   *slog.Logger
	// root builds singletons, so whatever they depend on lives as long as
	// the container.
	root *Scope
}

type Option = opts.Option[Container]

var WithLogger = opts.ForName[Container, *slog.Logger]("logger")

// New creates an empty container. It panics when an option fails to apply.
func New(options ...Option) *Container {
	c := &Container{
		services: registry.New[*registration](),
		logger:   slog.Default().With(slogx.LoggerName("parley.container")),
	}
	if err := opts.Apply(c, options); err != nil {
		panic(err)
	}
	if c.logger == nil {
		c.logger = slog.Default().With(slogx.LoggerName("parley.container"))
	}
	c.root = c.newScope(context.Background(), "root")
	return c
}

func add[S any](c *Container, lifetime Lifetime, factory Factory[S]) {
	key := parley.ServiceOf[S]()
	reg := &registration{
		key:      key,
		lifetime: lifetime,
		build: func(ctx context.Context, scope *Scope) (any, error) {
			return factory(ctx, scope)
		},
	}
	if lifetime == Singleton {
		reg.single = &singleton{}
	}
	c.services.Put(key.ID(), reg)
	c.logger.Debug("registered service",
		slogx.Stringer("service", key),
		slogx.Stringer("lifetime", lifetime),
		slog.String("factory", reflectx.FunctionName(factory)),
	)
}

// AddSingleton registers a service built once and shared by every scope. Its
// factory resolves dependencies from the container's root scope, which is
// released by Close.
func AddSingleton[S any](c *Container, factory Factory[S]) {
	add(c, Singleton, factory)
}

// AddScoped registers a service built once per scope.
func AddScoped[S any](c *Container, factory Factory[S]) {
	add(c, Scoped, factory)
}

// AddTransient registers a service built on every resolve.
func AddTransient[S any](c *Container, factory Factory[S]) {
	add(c, Transient, factory)
}

// AddInstance registers an already built singleton.
func AddInstance[S any](c *Container, value S) {
	add(c, Singleton, func(context.Context, *Scope) (S, error) { return value, nil })
}

// Has reports whether service S is registered.
func Has[S any](c *Container) bool {
	_, ok := c.services.Get(parley.ServiceOf[S]().ID())
	return ok
}

// CreateScope starts a new resolution scope.
func (c *Container) CreateScope(ctx context.Context) (parley.Scope, error) {
	return c.NewScope(ctx), nil
}

// NewScope is CreateScope for callers that want the concrete *Scope.
func (c *Container) NewScope(ctx context.Context) *Scope {
	return c.newScope(ctx, "scope")
}

func (c *Container) newScope(ctx context.Context, prefix string) *Scope {
	s := &Scope{
		id:        uuidx.Prefixed(prefix),
		ctx:       ctx,
		container: c,
		instances: make(map[string]any),
	}
	c.logger.Debug("created scope", slog.String("scope", s.id))
	return s
}

// Close closes the singletons that implement io.Closer, then everything they
// depended on. Singletons cannot be built after Close.
func (c *Container) Close() error {
	var errs []error
	for _, name := range c.services.Names() {
		reg, ok := c.services.Get(name)
		if !ok || reg.single == nil {
			continue
		}
		reg.single.mu.Lock()
		v, built := reg.single.value, reg.single.built
		reg.single.built, reg.single.value = false, nil
		reg.single.mu.Unlock()

		if closer, ok := v.(io.Closer); built && ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", reg.key, err))
			}
		}
	}
	if err := c.root.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Scope caches scoped services and tracks everything it built so it can be
// released in one go.
type Scope struct {
	id        string
	ctx       context.Context
	container *Container

	mu        sync.Mutex
	instances map[string]any
	closers   []io.Closer
	released  bool
}

func (s *Scope) ID() string { return s.id }

// Resolve returns the service registered under key when it implements
// parley.GetterProvider.
func (s *Scope) Resolve(key parley.ServiceKey) (parley.GetterProvider, bool) {
	v, err := s.resolve(s.ctx, key)
	if err != nil {
		s.container.logger.Warn("failed to resolve service",
			slog.String("scope", s.id),
			slogx.Stringer("service", key),
			slogx.Error(err),
		)
		return nil, false
	}
	provider, ok := v.(parley.GetterProvider)
	if !ok {
		s.container.logger.Warn("service does not provide data",
			slog.String("scope", s.id),
			slogx.Stringer("service", key),
		)
		return nil, false
	}
	return provider, true
}

// Release closes the scoped and transient services this scope built that
// implement io.Closer, most recent first. Releasing twice is a no-op.
func (s *Scope) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	closers := s.closers
	s.closers = nil
	s.instances = nil
	s.mu.Unlock()

	var errs []error
	for _, closer := range slices.Backward(closers) {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.container.logger.Debug("released scope", slog.String("scope", s.id), slog.Int("closed", len(closers)))
	return errors.Join(errs...)
}

// Get resolves service S from scope. Factories use it for their
// dependencies and must pass on the ctx they were given.
func Get[S any](ctx context.Context, scope *Scope) (S, error) {
	var zero S
	v, err := scope.resolve(ctx, parley.ServiceOf[S]())
	if err != nil {
		return zero, err
	}
	svc, ok := v.(S)
	if !ok {
		return zero, fmt.Errorf("service %s: got %T", parley.ServiceOf[S](), v)
	}
	return svc, nil
}

type chainKey struct{}

// CycleError reports a service that depends on itself, directly or not.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

func (s *Scope) resolve(ctx context.Context, key parley.ServiceKey) (any, error) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return nil, fmt.Errorf("%w: %s", ErrScopeReleased, s.id)
	}

	reg, ok := s.container.services.Get(key.ID())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, key)
	}

	chain, _ := ctx.Value(chainKey{}).([]string)
	name := key.String()
	if slices.Contains(chain, name) {
		return nil, &CycleError{Chain: append(slices.Clone(chain), name)}
	}
	ctx = context.WithValue(ctx, chainKey{}, append(slices.Clone(chain), name))

	switch reg.lifetime {
	case Singleton:
		return s.singleton(ctx, reg)
	case Scoped:
		return s.scoped(ctx, reg)
	default:
		v, err := reg.build(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", key, err)
		}
		s.track(v)
		return v, nil
	}
}

func (s *Scope) singleton(ctx context.Context, reg *registration) (any, error) {
	reg.single.mu.Lock()
	defer reg.single.mu.Unlock()
	if reg.single.built {
		return reg.single.value, nil
	}
	v, err := reg.build(ctx, s.container.root)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", reg.key, err)
	}
	reg.single.value, reg.single.built = v, true
	return v, nil
}

func (s *Scope) scoped(ctx context.Context, reg *registration) (any, error) {
	id := reg.key.ID()

	s.mu.Lock()
	if v, ok := s.instances[id]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := reg.build(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", reg.key, err)
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		closeQuietly(v)
		return nil, fmt.Errorf("%w: %s", ErrScopeReleased, s.id)
	}
	if existing, ok := s.instances[id]; ok {
		s.mu.Unlock()
		closeQuietly(v)
		return existing, nil
	}
	s.instances[id] = v
	if closer, ok := v.(io.Closer); ok {
		s.closers = append(s.closers, closer)
	}
	s.mu.Unlock()
	return v, nil
}

func (s *Scope) track(v any) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		closeQuietly(v)
		return
	}
	s.closers = append(s.closers, closer)
}

func closeQuietly(v any) {
	if closer, ok := v.(io.Closer); ok {
		_ = closer.Close()
	}
}
