package ephem

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
)

func TestAlmanacProvider_Bodies(t *testing.T) {
	p := NewAlmanacProvider()
	obs := astro.Observer{LatDeg: 40.7128, LonDeg: -74.006, Name: "New York"}

	lons, err := p.Longitudes(context.Background(), time.Date(1990, 7, 4, 15, 30, 0, 0, time.UTC), obs)
	require.NoError(t, err)
	require.Len(t, lons, len(Targets)+2)

	for i, target := range Targets {
		assert.Equal(t, target.Body, lons[i].Body)
	}
	assert.Equal(t, chart.Ascendant, lons[len(Targets)].Body)
	assert.Equal(t, chart.NorthNode, lons[len(Targets)+1].Body)

	for _, l := range lons {
		assert.GreaterOrEqual(t, l.Longitude, 0.0, "%v", l.Body)
		assert.Less(t, l.Longitude, 360.0, "%v", l.Body)
	}
}

func TestAlmanacProvider_KnownPositions(t *testing.T) {
	// Geocentric tropical longitudes at 2024-01-01 00:00 UTC.
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := map[chart.Body]float64{
		chart.Sun:     280.0,
		chart.Jupiter: 35.6,
		chart.Saturn:  333.5,
		chart.Uranus:  49.3,
		chart.Neptune: 354.9,
		chart.Pluto:   299.6,
	}

	for body, expected := range want {
		got := almanacLongitude(body, at)
		diff := math.Abs(astro.NormalizeAngle180(got - expected))
		if diff > 2 {
			t.Errorf("%v = %.2f°, want %.1f° (±2)", body, got, expected)
		}
	}
}

func TestAlmanacProvider_InnerPlanetsStayNearSun(t *testing.T) {
	for _, at := range []time.Time{
		time.Date(1975, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 9, 11, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC),
	} {
		sun := almanacLongitude(chart.Sun, at)
		if e := math.Abs(astro.NormalizeAngle180(almanacLongitude(chart.Mercury, at) - sun)); e > 28.5 {
			t.Errorf("%s: Mercury elongation %.1f° exceeds maximum", at.Format("2006-01-02"), e)
		}
		if e := math.Abs(astro.NormalizeAngle180(almanacLongitude(chart.Venus, at) - sun)); e > 47.5 {
			t.Errorf("%s: Venus elongation %.1f° exceeds maximum", at.Format("2006-01-02"), e)
		}
	}
}

func TestAlmanacProvider_Errors(t *testing.T) {
	p := NewAlmanacProvider()

	_, err := p.Longitudes(context.Background(), time.Now(), astro.Observer{LatDeg: 91})
	assert.ErrorIs(t, err, ErrInvalidObserver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Longitudes(ctx, time.Now(), astro.Observer{})
	assert.ErrorIs(t, err, context.Canceled)
}
