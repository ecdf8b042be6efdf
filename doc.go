/*
Package parley is an in-process request/response broker. Producers register
named communication links backed by a provider, consumers ask for data by link
name and get it back in the shape they asked for. Neither side holds a
reference to the other.

A link is backed either by a getter function or by a service that a Resolver
builds for every request:

	b := parley.New(parley.WithResolver(container))

	_ = parley.Provide(b, "weather", func(ctx context.Context, city string) (Forecast, error) {
		return lookup(ctx, city)
	})
	_ = parley.ProvideService[Forecast, *WeatherService](b, "weather-svc")

	f, err := parley.Ask[Forecast](ctx, b, "weather", "Ghent")

# Adaptation

When the requested shape is not the one the provider declared, the value is
adapted structurally: fields are matched by name, fields the caller did not
ask for are dropped and fields the provider does not know are set to their
zero value. Adapting a shared field between incompatible types fails with
ErrAdaptationFailed. See package shape for the rules.

# Service scopes

Every request to a service backed link creates a new Scope, resolves the
service in it and releases it before AskFor returns, on success and failure
alike. Scopes are never shared between requests.

# Concurrency

All Broker methods are safe for concurrent use. Re-registering a name replaces
the previous provider. Providers run synchronously on the caller's goroutine;
the broker does not understand deferred values and adds no timeouts of its
own, the context is handed to the provider as is.
*/
package parley
