package natal

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
)

type fakeProvider struct {
	lons  []chart.CelestialLongitude
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Longitudes(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, error) {
	f.calls++
	return f.lons, f.err
}

type mapCache struct {
	mu sync.Mutex
	m  map[uint64]*Chart
}

func (c *mapCache) Get(fp uint64) (*Chart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.m[fp]
	return ch, ok
}

func (c *mapCache) Put(fp uint64, ch *Chart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[fp] = ch
}

type countingRecorder struct {
	fetches, computed, cached, failed int
}

func (r *countingRecorder) ObserveFetch(provider string, d time.Duration, err error) { r.fetches++ }

func (r *countingRecorder) ObserveChart(c *Chart, cached bool, err error) {
	switch {
	case err != nil:
		r.failed++
	case cached:
		r.cached++
	default:
		r.computed++
	}
}

func TestService_Compute(t *testing.T) {
	p := &fakeProvider{lons: sampleLongitudes()}
	cache := &mapCache{m: map[uint64]*Chart{}}
	rec := &countingRecorder{}
	svc := NewService(p, DefaultOptions(), nil, WithCache(cache), WithRecorder(rec))

	c, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "fake", c.Provider)
	assert.False(t, c.Computed.IsZero())
	assert.Len(t, c.Placements, 6)

	// Identical request reuses the cached chart.
	again, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, c, again)
	assert.Equal(t, 1, p.calls)

	assert.Equal(t, 1, rec.fetches)
	assert.Equal(t, 1, rec.computed)
	assert.Equal(t, 1, rec.cached)
	assert.Equal(t, "fake", svc.Provider())
}

func TestService_CacheHitUsesCallerRequest(t *testing.T) {
	p := &fakeProvider{lons: sampleLongitudes()}
	svc := NewService(p, DefaultOptions(), nil, WithCache(&mapCache{m: map[uint64]*Chart{}}))

	alice := sampleRequest()
	alice.Label = "Alice"
	first, err := svc.Compute(context.Background(), alice)
	require.NoError(t, err)

	bob := alice
	bob.Label = "Bob"
	bob.Time = alice.Time.Add(300 * time.Millisecond)
	require.Equal(t, alice.Fingerprint(), bob.Fingerprint())

	second, err := svc.Compute(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.NotSame(t, first, second)
	assert.Equal(t, "Bob", second.Request.Label)
	assert.True(t, second.Request.Time.Equal(bob.Time))
	assert.Equal(t, "Bob", ExportChart(second).Label)
	assert.Equal(t, first.Placements, second.Placements)

	// The cached chart keeps its own request.
	assert.Equal(t, "Alice", first.Request.Label)
	third, err := svc.Compute(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", third.Request.Label)
}

type sourcedProvider struct {
	fakeProvider
	source string
}

func (s *sourcedProvider) Name() string { return "primary+secondary" }

func (s *sourcedProvider) LongitudesFrom(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, string, error) {
	lons, err := s.Longitudes(ctx, t, obs)
	return lons, s.source, err
}

func TestService_ProviderNamesAnsweringSource(t *testing.T) {
	p := &sourcedProvider{fakeProvider: fakeProvider{lons: sampleLongitudes()}, source: "secondary"}
	svc := NewService(p, DefaultOptions(), nil)

	c, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "secondary", c.Provider)
	assert.Equal(t, "secondary", ExportChart(c).Provider)
	assert.Equal(t, "primary+secondary", svc.Provider())
}

func TestService_ComputeWithoutCache(t *testing.T) {
	p := &fakeProvider{lons: sampleLongitudes()}
	svc := NewService(p, DefaultOptions(), nil)

	_, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)
	_, err = svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestService_ProviderError(t *testing.T) {
	boom := errors.New("horizons down")
	rec := &countingRecorder{}
	svc := NewService(&fakeProvider{err: boom}, DefaultOptions(), nil, WithRecorder(rec))

	_, err := svc.Compute(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrEphemeris)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.failed)
}

func TestService_InvalidRequest(t *testing.T) {
	p := &fakeProvider{lons: sampleLongitudes()}
	svc := NewService(p, DefaultOptions(), nil)

	req := sampleRequest()
	req.Observer.LatDeg = -100
	_, err := svc.Compute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, p.calls)
}

func TestService_MalformedLongitudes(t *testing.T) {
	lons := sampleLongitudes()
	lons[0].Longitude = math.NaN()
	cache := &mapCache{m: map[uint64]*Chart{}}
	svc := NewService(&fakeProvider{lons: lons}, DefaultOptions(), nil, WithCache(cache))

	_, err := svc.Compute(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, chart.ErrMalformedLongitude)
	assert.Empty(t, cache.m, "failed charts are not cached")
}
