package natal

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/ephem"
	"github.com/litescript/ls-natal/internal/logging"
)

// Cache stores computed charts by request fingerprint.
type Cache interface {
	Get(fingerprint uint64) (*Chart, bool)
	Put(fingerprint uint64, c *Chart)
}

// Recorder receives computation outcomes, typically for metrics.
type Recorder interface {
	ObserveFetch(provider string, d time.Duration, err error)
	ObserveChart(c *Chart, cached bool, err error)
}

// Service computes charts from an ephemeris provider.
type Service struct {
	provider ephem.Provider
	opts     Options
	cache    Cache
	rec      Recorder
	log      *logging.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables chart reuse across identical requests.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.rec = r }
}

// NewService creates a chart service.
func NewService(p ephem.Provider, opts Options, log *logging.Logger, options ...ServiceOption) *Service {
	if log == nil {
		log = logging.Discard()
	}
	s := &Service{
		provider: p,
		opts:     opts,
		log:      log.WithComponent("natal"),
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Provider returns the name of the ephemeris source.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Options returns the assembly options in use.
func (s *Service) Options() Options {
	return s.opts
}

// Compute returns the chart for req, from cache when possible.
func (s *Service) Compute(ctx context.Context, req Request) (*Chart, error) {
	if err := req.Validate(); err != nil {
		s.observeChart(nil, false, err)
		return nil, err
	}

	fp := req.Fingerprint()
	if s.cache != nil {
		if c, ok := s.cache.Get(fp); ok {
			s.log.Debug("cache hit for %016x", fp)
			s.observeChart(c, true, nil)
			// The fingerprint ignores the label and sub-second time, so the
			// cached chart is shared but the request is the caller's.
			hit := *c
			hit.Request = req
			return &hit, nil
		}
	}

	start := s.now()
	lons, source, err := s.fetch(ctx, req)
	if s.rec != nil {
		s.rec.ObserveFetch(source, s.now().Sub(start), err)
	}
	if err != nil {
		s.log.WithError(err).Error("ephemeris fetch failed")
		err = fmt.Errorf("%w: %w", ErrEphemeris, err)
		s.observeChart(nil, false, err)
		return nil, err
	}

	c, err := BuildChart(req, lons, s.opts)
	if err != nil {
		s.observeChart(nil, false, err)
		return nil, err
	}
	c.Provider = source
	c.Computed = s.now()

	for _, w := range c.Warnings {
		s.log.Warn("partial chart: %s", w)
	}
	s.log.WithFields(logging.Fields{
		"fingerprint": req.FingerprintHex(),
		"aspects":     len(c.Aspects),
		"provider":    c.Provider,
	}).Info("chart computed in %v", s.now().Sub(start))

	if s.cache != nil {
		s.cache.Put(fp, c)
	}
	s.observeChart(c, false, nil)
	return c, nil
}

// fetch asks the provider for longitudes and names the source that answered.
func (s *Service) fetch(ctx context.Context, req Request) ([]chart.CelestialLongitude, string, error) {
	if sp, ok := s.provider.(ephem.SourcedProvider); ok {
		return sp.LongitudesFrom(ctx, req.Time, req.Observer)
	}
	lons, err := s.provider.Longitudes(ctx, req.Time, req.Observer)
	return lons, s.provider.Name(), err
}

func (s *Service) observeChart(c *Chart, cached bool, err error) {
	if s.rec != nil {
		s.rec.ObserveChart(c, cached, err)
	}
}
