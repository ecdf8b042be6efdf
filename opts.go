package parley

import (
	"log/slog"

	"github.com/casualjim/parley/internal/link"
	"github.com/casualjim/parley/internal/registry"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/fogfish/opts"
)

type Option = opts.Option[broker]

// WithResolver configures the resolver used for service backed links.
func WithResolver(resolver Resolver) Option {
	return opts.Type[broker](func(b *broker) error {
		b.resolver = resolver
		return nil
	})
}

// WithLogger sets the logger the broker traces registrations to.
var WithLogger = opts.ForName[broker, *slog.Logger]("logger")

// New creates a broker. It panics when an option fails to apply.
func New(options ...Option) Broker {
	b := &broker{
		links:  registry.New[link.Descriptor](),
		logger: slog.Default().With(slogx.LoggerName("parley.broker")),
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	if b.logger == nil {
		b.logger = slog.Default().With(slogx.LoggerName("parley.broker"))
	}
	return b
}
