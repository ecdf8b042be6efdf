package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/parley/internal/link"
	"github.com/casualjim/parley/internal/registry"
	"github.com/casualjim/parley/pkg/jsonx"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/casualjim/parley/shape"
	"github.com/tidwall/gjson"
)

var _ Broker = (*broker)(nil)

type broker struct {
	links    registry.Registry[link.Descriptor]
	resolver Resolver
	logger   *slog.Logger
}

func (b *broker) RegisterGetter(name string, provided *shape.Shape, fn GetterFunc) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLink)
	}
	d, err := link.NewGetter(provided, fn)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	b.put(name, d)
	return nil
}

func (b *broker) RegisterGetterService(name string, provided *shape.Shape, service ServiceKey) error {
	if b.resolver == nil {
		return ErrResolverUnavailable
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLink)
	}
	d, err := link.NewService(provided, service)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	b.put(name, d)
	return nil
}

func (b *broker) put(name string, d link.Descriptor) {
	if _, replaced := b.links.Get(name); replaced {
		b.logger.Debug("replacing link", slogx.Link(name), slog.Bool("service", d.IsService()))
	} else {
		b.logger.Debug("registering link", slogx.Link(name), slog.Bool("service", d.IsService()))
	}
	b.links.Put(name, d)
}

func (b *broker) RemoveGetter(name string) {
	b.logger.Debug("removing link", slogx.Link(name))
	b.links.Remove(name)
}

func (b *broker) AskFor(ctx context.Context, requested *shape.Shape, name, data string) (any, error) {
	d, ok := b.links.Get(name)
	if !ok {
		return nil, &NotRegisteredError{Name: name}
	}

	raw, err := b.fetch(ctx, name, d, data)
	if err != nil {
		return nil, err
	}

	provided := d.Provided()
	if requested == nil || provided.Identical(requested) {
		return raw, nil
	}
	return b.adapt(name, raw, provided, requested)
}

func (b *broker) fetch(ctx context.Context, name string, d link.Descriptor, data string) (any, error) {
	if getter, ok := d.Getter(); ok {
		return getter(ctx, data)
	}

	key, _ := d.Service()
	return b.fetchService(ctx, name, key, data)
}

func (b *broker) fetchService(ctx context.Context, name string, key ServiceKey, data string) (_ any, err error) {
	if b.resolver == nil {
		return nil, ErrResolverUnavailable
	}

	scope, err := b.resolver.CreateScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("create scope for %s: %w", name, err)
	}
	b.logger.Debug("created scope", slogx.Link(name), slogx.Stringer("service", key))
	defer func() {
		if rerr := scope.Release(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("release scope for %s: %w", name, rerr))
		}
	}()

	provider, ok := scope.Resolve(key)
	if !ok || provider == nil {
		return nil, &ServiceNotFoundError{Service: key}
	}
	return provider.GetData(ctx, data)
}

// adapt reconciles raw, produced under provided, with the requested shape.
// Bound targets are materialized as their Go type, objects otherwise come
// back as *shape.Record and everything else as a plain JSON value.
func (b *broker) adapt(name string, raw any, provided, requested *shape.Shape) (any, error) {
	fail := func(err error) (any, error) {
		return nil, &AdaptationError{Link: name, From: provided, To: requested, Err: err}
	}

	value, err := jsonx.Interchange(raw)
	if err != nil {
		return fail(err)
	}
	adapted, err := shape.Convert(value, provided, requested)
	if err != nil {
		return fail(err)
	}

	if requested.Bound() {
		v, err := jsonx.Decode([]byte(rawOrNull(adapted)), requested.GoType())
		if err != nil {
			return fail(err)
		}
		return v, nil
	}

	if adapted.IsObject() {
		rec, err := shape.RecordFrom(adapted)
		if err != nil {
			return fail(err)
		}
		return rec, nil
	}
	return adapted.Value(), nil
}

func rawOrNull(v gjson.Result) string {
	if v.Raw == "" {
		return "null"
	}
	return v.Raw
}

func (b *broker) Links() []LinkInfo {
	names := b.links.Names()
	infos := make([]LinkInfo, 0, len(names))
	for _, name := range names {
		if info, ok := b.Describe(name); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func (b *broker) Describe(name string) (LinkInfo, bool) {
	d, ok := b.links.Get(name)
	if !ok {
		return LinkInfo{}, false
	}
	info := LinkInfo{Name: name, Kind: GetterLink, Provided: d.Provided()}
	if key, ok := d.Service(); ok {
		info.Kind = ServiceLink
		info.Service = key
	}
	return info, true
}
