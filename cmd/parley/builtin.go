package main

import (
	"context"
	"fmt"
	"time"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/container"
	"github.com/go-openapi/strfmt"
)

const (
	clockLink = "clock"
	echoLink  = "echo"
)

// Clock is the answer of the clock link.
type Clock struct {
	Now  strfmt.DateTime `json:"now"`
	Zone string          `json:"zone"`
}

// clockService tells the time in the zone named by the data string, or UTC.
type clockService struct {
	now func() time.Time
}

func (s *clockService) GetData(_ context.Context, zone string) (any, error) {
	loc := time.UTC
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("clock: %w", err)
		}
		loc = l
	}
	return Clock{Now: strfmt.DateTime(s.now().In(loc)), Zone: loc.String()}, nil
}

// Echo is the answer of the echo link.
type Echo struct {
	Data   string    `json:"data"`
	Length int       `json:"length"`
	At     time.Time `json:"at"`
}

func (a *app) registerBuiltins() error {
	container.AddScoped(a.container, func(context.Context, *container.Scope) (*clockService, error) {
		return &clockService{now: a.now}, nil
	})
	if err := parley.ProvideService[Clock, *clockService](a.broker, clockLink); err != nil {
		return err
	}

	return parley.Provide(a.broker, echoLink, func(_ context.Context, data string) (Echo, error) {
		return Echo{Data: data, Length: len(data), At: a.now().UTC()}, nil
	})
}
