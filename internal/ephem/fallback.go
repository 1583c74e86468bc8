package ephem

import (
	"context"
	"errors"
	"time"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/logging"
)

// FallbackProvider asks the primary source first and answers from the
// secondary when the primary fails.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	log       *logging.Logger
}

// NewFallbackProvider chains two providers.
func NewFallbackProvider(primary, secondary Provider, log *logging.Logger) *FallbackProvider {
	if log == nil {
		log = logging.Discard()
	}
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		log:       log.WithComponent("ephem"),
	}
}

// Name implements Provider. It names both sources; LongitudesFrom reports
// the one that answered.
func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "+" + p.secondary.Name()
}

// Longitudes implements Provider.
func (p *FallbackProvider) Longitudes(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, error) {
	lons, _, err := p.LongitudesFrom(ctx, t, obs)
	return lons, err
}

// LongitudesFrom implements SourcedProvider.
func (p *FallbackProvider) LongitudesFrom(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, string, error) {
	lons, err := p.primary.Longitudes(ctx, t, obs)
	if err == nil {
		return lons, p.primary.Name(), nil
	}
	// Neither source can help with a bad location or a cancelled caller.
	if errors.Is(err, ErrInvalidObserver) || ctx.Err() != nil {
		return nil, p.primary.Name(), err
	}

	p.log.WithError(err).Warn("%s unavailable, using %s", p.primary.Name(), p.secondary.Name())
	lons, err = p.secondary.Longitudes(ctx, t, obs)
	return lons, p.secondary.Name(), err
}
