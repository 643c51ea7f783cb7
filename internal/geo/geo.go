// Package geo resolves visitor IP addresses to a location.
//
// Lookups are best-effort and advisory: ingest consults a chain of
// providers in order and proceeds with an unknown location when all of
// them fail. Provider errors never propagate past the chain.
package geo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/visitlog/visitlog/internal/metrics"
)

// Location is a resolved IP location. Fields may be empty individually;
// a provider returns an error instead of an entirely empty Location.
type Location struct {
	Country string
	City    string
	Org     string
}

// ErrNotFound indicates the provider had no data for the address.
var ErrNotFound = errors.New("geo: location not found")

// Resolver maps an IP address to a Location.
type Resolver interface {
	// Resolve looks up addr. It must be called with a routable address.
	Resolve(ctx context.Context, addr string) (Location, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// Chain tries an ordered list of providers and returns the first success.
type Chain struct {
	providers []Resolver
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewChain creates a resolver chain. Providers are consulted in the
// order given.
func NewChain(logger *slog.Logger, recorder metrics.Recorder, providers ...Resolver) *Chain {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "geo.chain"),
		metrics:   recorder,
	}
}

// Resolve tries each provider in order, stopping at the first success.
// Individual provider failures are logged at debug level only.
func (c *Chain) Resolve(ctx context.Context, addr string) (Location, error) {
	for _, p := range c.providers {
		loc, err := p.Resolve(ctx, addr)
		if err == nil {
			c.metrics.IncGeoLookup(p.Name(), "success")
			return loc, nil
		}
		c.metrics.IncGeoLookup(p.Name(), "failure")
		c.logger.Debug("geo provider failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
	}
	return Location{}, ErrNotFound
}

// Name implements Resolver.
func (c *Chain) Name() string { return "chain" }
