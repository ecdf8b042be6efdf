package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/container"
	"github.com/casualjim/parley/internal/config"
	"github.com/casualjim/parley/pkg/jsonx"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/casualjim/parley/shape"
)

// app wires a broker to its container and registers the built-in and
// configured links.
type app struct {
	broker    parley.Broker
	container *container.Container
	now       func() time.Time
}

func newApp(cfg *config.Config, now func() time.Time) (*app, error) {
	if now == nil {
		now = time.Now
	}
	c := container.New()
	a := &app{
		broker:    parley.New(parley.WithResolver(c)),
		container: c,
		now:       now,
	}

	if err := a.registerBuiltins(); err != nil {
		return nil, err
	}
	for _, l := range cfg.Links {
		if err := a.registerStatic(l); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close() error {
	return a.container.Close()
}

// registerStatic serves the configured value of l. The value is checked
// against the declared schema once, up front.
func (a *app) registerStatic(l config.LinkConfig) error {
	declared, err := l.Shape()
	if err != nil {
		return err
	}
	raw, err := jsonx.Interchange(l.Value)
	if err != nil {
		return fmt.Errorf("link %s: value: %w", l.Name, err)
	}
	value, err := shape.Convert(raw, nil, declared)
	if err != nil {
		return fmt.Errorf("link %s: value does not match schema: %w", l.Name, err)
	}

	var getter parley.GetterFunc
	if value.IsObject() {
		rec, err := shape.RecordFrom(value)
		if err != nil {
			return fmt.Errorf("link %s: %w", l.Name, err)
		}
		getter = func(context.Context, string) (any, error) { return rec.Clone(), nil }
	} else {
		v := value.Value()
		getter = func(context.Context, string) (any, error) { return v, nil }
	}

	if err := a.broker.RegisterGetter(l.Name, declared, getter); err != nil {
		return err
	}
	slog.Debug("registered static link", slogx.Link(l.Name), slogx.Stringer("shape", declared))
	return nil
}
