package container

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/casualjim/parley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type counter struct {
	n atomic.Int64
}

type closeLog struct {
	mu    sync.Mutex
	names []string
}

func (l *closeLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *closeLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.names)
}

type greeter struct {
	counter *counter
	closed  *closeLog
	name    string
}

func (g *greeter) GetData(_ context.Context, data string) (any, error) {
	g.counter.n.Add(1)
	return "hello " + data + " from " + g.name, nil
}

func (g *greeter) Close() error {
	g.closed.add(g.name)
	return nil
}

type notAProvider struct{}

type selfish struct{}

type chicken struct{}
type egg struct{}

func newGreeterContainer(lifetime Lifetime, closed *closeLog) (*Container, *atomic.Int64) {
	c := New()
	var built atomic.Int64
	AddInstance(c, &counter{})
	factory := func(ctx context.Context, scope *Scope) (*greeter, error) {
		cnt, err := Get[*counter](ctx, scope)
		if err != nil {
			return nil, err
		}
		n := built.Add(1)
		return &greeter{counter: cnt, closed: closed, name: "g" + string(rune('0'+n))}, nil
	}
	switch lifetime {
	case Singleton:
		AddSingleton(c, factory)
	case Scoped:
		AddScoped(c, factory)
	default:
		AddTransient(c, factory)
	}
	return c, &built
}

func TestLifetimes(t *testing.T) {
	tests := []struct {
		name       string
		lifetime   Lifetime
		wantBuilt  int64
		wantClosed []string
	}{
		// two scopes, two resolves each
		{"singleton", Singleton, 1, nil},
		{"scoped", Scoped, 2, []string{"g1", "g2"}},
		{"transient", Transient, 4, []string{"g2", "g1", "g4", "g3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var closed closeLog
			c, built := newGreeterContainer(tt.lifetime, &closed)
			key := parley.ServiceOf[*greeter]()

			for range 2 {
				scope, err := c.CreateScope(context.Background())
				require.NoError(t, err)
				for range 2 {
					p, ok := scope.Resolve(key)
					require.True(t, ok)
					v, err := p.GetData(context.Background(), "you")
					require.NoError(t, err)
					assert.True(t, strings.HasPrefix(v.(string), "hello you from g"))
				}
				require.NoError(t, scope.Release())
			}

			assert.Equal(t, tt.wantBuilt, built.Load())
			assert.Equal(t, tt.wantClosed, closed.list())
		})
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	var closed closeLog
	c, _ := newGreeterContainer(Scoped, &closed)

	scope := c.NewScope(context.Background())
	_, ok := scope.Resolve(parley.ServiceOf[*greeter]())
	require.True(t, ok)

	require.NoError(t, scope.Release())
	require.NoError(t, scope.Release())
	assert.Equal(t, []string{"g1"}, closed.list())

	_, ok = scope.Resolve(parley.ServiceOf[*greeter]())
	assert.False(t, ok)

	_, err := Get[*greeter](context.Background(), scope)
	assert.ErrorIs(t, err, ErrScopeReleased)
}

func TestContainerClose(t *testing.T) {
	var closed closeLog
	c, _ := newGreeterContainer(Singleton, &closed)

	scope := c.NewScope(context.Background())
	_, ok := scope.Resolve(parley.ServiceOf[*greeter]())
	require.True(t, ok)
	require.NoError(t, scope.Release())
	assert.Empty(t, closed.list())

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"g1"}, closed.list())
}

// relay forwards to the greeter it was built with.
type relay struct {
	greeter *greeter
}

func (r *relay) GetData(ctx context.Context, data string) (any, error) {
	return r.greeter.GetData(ctx, data)
}

func TestSingletonDependenciesOutliveScopes(t *testing.T) {
	var closed closeLog
	c := New()
	AddInstance(c, &counter{})
	var built atomic.Int64
	AddScoped(c, func(ctx context.Context, scope *Scope) (*greeter, error) {
		cnt, err := Get[*counter](ctx, scope)
		if err != nil {
			return nil, err
		}
		n := built.Add(1)
		return &greeter{counter: cnt, closed: &closed, name: "g" + string(rune('0'+n))}, nil
	})
	AddSingleton(c, func(ctx context.Context, scope *Scope) (*relay, error) {
		g, err := Get[*greeter](ctx, scope)
		if err != nil {
			return nil, err
		}
		return &relay{greeter: g}, nil
	})

	ctx := context.Background()
	scope := c.NewScope(ctx)
	r, err := Get[*relay](ctx, scope)
	require.NoError(t, err)
	own, err := Get[*greeter](ctx, scope)
	require.NoError(t, err)
	assert.NotSame(t, r.greeter, own)
	require.NoError(t, scope.Release())

	// the request scope closed its own greeter but not the relay's
	assert.Equal(t, []string{own.name}, closed.list())

	next := c.NewScope(ctx)
	again, err := Get[*relay](ctx, next)
	require.NoError(t, err)
	assert.Same(t, r, again)
	v, err := again.GetData(ctx, "you")
	require.NoError(t, err)
	assert.Equal(t, "hello you from "+r.greeter.name, v)
	require.NoError(t, next.Release())

	require.NoError(t, c.Close())
	assert.Equal(t, []string{own.name, r.greeter.name}, closed.list())

	_, err = Get[*relay](ctx, c.NewScope(ctx))
	assert.ErrorIs(t, err, ErrScopeReleased)
}

func TestResolveFailures(t *testing.T) {
	c := New()
	AddInstance(c, notAProvider{})
	AddSingleton(c, func(ctx context.Context, scope *Scope) (selfish, error) {
		return Get[selfish](ctx, scope)
	})
	AddScoped(c, func(ctx context.Context, scope *Scope) (chicken, error) {
		_, err := Get[egg](ctx, scope)
		return chicken{}, err
	})
	AddScoped(c, func(ctx context.Context, scope *Scope) (egg, error) {
		_, err := Get[chicken](ctx, scope)
		return egg{}, err
	})

	scope := c.NewScope(context.Background())
	defer scope.Release()

	t.Run("unknown", func(t *testing.T) {
		_, ok := scope.Resolve(parley.ServiceOf[*greeter]())
		assert.False(t, ok)
		_, err := Get[*greeter](context.Background(), scope)
		assert.ErrorIs(t, err, ErrUnknownService)
	})

	t.Run("not a provider", func(t *testing.T) {
		_, ok := scope.Resolve(parley.ServiceOf[notAProvider]())
		assert.False(t, ok)
		v, err := Get[notAProvider](context.Background(), scope)
		require.NoError(t, err)
		assert.Equal(t, notAProvider{}, v)
	})

	t.Run("self cycle", func(t *testing.T) {
		_, err := Get[selfish](context.Background(), scope)
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("indirect cycle", func(t *testing.T) {
		_, err := Get[chicken](context.Background(), scope)
		require.ErrorIs(t, err, ErrCycle)

		var ce *CycleError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, []string{"container.chicken", "container.egg", "container.chicken"}, ce.Chain)
	})
}

func TestSingletonErrorsAreNotCached(t *testing.T) {
	c := New()
	var attempts atomic.Int64
	AddSingleton(c, func(context.Context, *Scope) (*counter, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("not yet")
		}
		return &counter{}, nil
	})

	scope := c.NewScope(context.Background())
	defer scope.Release()

	_, err := Get[*counter](context.Background(), scope)
	require.Error(t, err)

	first, err := Get[*counter](context.Background(), scope)
	require.NoError(t, err)
	second, err := Get[*counter](context.Background(), scope)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestHas(t *testing.T) {
	c := New()
	assert.False(t, Has[*counter](c))
	AddInstance(c, &counter{})
	assert.True(t, Has[*counter](c))
	assert.Equal(t, "transient", Transient.String())
}

func TestScopedConcurrent(t *testing.T) {
	var closed closeLog
	c, built := newGreeterContainer(Scoped, &closed)
	scope := c.NewScope(context.Background())

	var g errgroup.Group
	results := make([]*greeter, 16)
	for i := range results {
		g.Go(func() error {
			v, err := Get[*greeter](context.Background(), scope)
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
	assert.GreaterOrEqual(t, built.Load(), int64(1))
	assert.NotEmpty(t, scope.ID())
	assert.True(t, strings.HasPrefix(scope.ID(), "scope-"))
}

func TestWithBroker(t *testing.T) {
	var closed closeLog
	c, _ := newGreeterContainer(Scoped, &closed)
	b := parley.New(parley.WithResolver(c))

	require.NoError(t, parley.ProvideService[string, *greeter](b, "greet"))

	got, err := parley.Ask[string](context.Background(), b, "greet", "XXX")
	require.NoError(t, err)
	assert.Equal(t, "hello XXX from g1", got)
	assert.Equal(t, []string{"g1"}, closed.list())

	got, err = parley.Ask[string](context.Background(), b, "greet", "YYY")
	require.NoError(t, err)
	assert.Equal(t, "hello YYY from g2", got)
}
