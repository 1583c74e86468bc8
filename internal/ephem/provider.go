// Package ephem provides ecliptic longitudes for the chart bodies.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/logging"
)

var (
	// ErrInvalidObserver is returned for coordinates off the globe.
	ErrInvalidObserver = errors.New("ephem: invalid observer location")

	// ErrNoData is returned when a source answers without usable rows.
	ErrNoData = errors.New("ephem: no ephemeris data")
)

// Provider defines the interface for ephemeris data sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Longitudes returns the geocentric ecliptic longitude of every chart
	// body, plus the Ascendant and mean lunar node for the observer, at t.
	Longitudes(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, error)
}

// SourcedProvider is a Provider backed by several sources that can say
// which one produced an answer.
type SourcedProvider interface {
	Provider

	// LongitudesFrom is Longitudes plus the name of the source that
	// answered, or that failed last.
	LongitudesFrom(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, string, error)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeHorizons Mode = iota // Use JPL Horizons
	ModeAlmanac              // Use the built-in low-precision almanac only
	ModeAuto                 // Try Horizons, fall back to the almanac
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeHorizons:
		return "horizons"
	case ModeAlmanac:
		return "almanac"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) Mode {
	switch s {
	case "horizons":
		return ModeHorizons
	case "almanac", "offline":
		return ModeAlmanac
	case "auto":
		return ModeAuto
	default:
		return ModeAuto
	}
}

// ValidMode reports whether s names a known mode.
func ValidMode(s string) bool {
	switch s {
	case "horizons", "almanac", "offline", "auto":
		return true
	}
	return false
}

// NewProvider builds the provider for a mode.
func NewProvider(mode Mode, opts HorizonsOptions, log *logging.Logger) (Provider, error) {
	if log == nil {
		log = logging.Discard()
	}
	switch mode {
	case ModeAlmanac:
		return NewAlmanacProvider(), nil
	case ModeHorizons:
		return NewHorizonsProvider(opts, log), nil
	case ModeAuto:
		return NewFallbackProvider(NewHorizonsProvider(opts, log), NewAlmanacProvider(), log), nil
	default:
		return nil, fmt.Errorf("ephem: unknown mode %d", mode)
	}
}

// localAngles returns the longitudes computed on the ground regardless of
// source: the Ascendant for the observer and the mean lunar node.
func localAngles(t time.Time, obs astro.Observer) []chart.CelestialLongitude {
	return []chart.CelestialLongitude{
		{Body: chart.Ascendant, Longitude: astro.Ascendant(t, obs)},
		{Body: chart.NorthNode, Longitude: astro.MeanNodeLongitude(t)},
	}
}
