// Package metrics exposes chart computation metrics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-natal/internal/natal"
)

// Chart results, used as the "result" label.
const (
	ResultOK        = "ok"
	ResultPartial   = "partial"
	ResultInvalid   = "invalid"
	ResultEphemeris = "ephemeris_error"
	ResultError     = "error"
)

// Collector bundles the ls-natal metrics. It satisfies natal.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Charts        *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	Aspects       *prometheus.CounterVec
	SkippedLines  prometheus.Counter
	CacheEntries  prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on one registry reuses the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	charts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "natal_charts_total",
		Help: "Chart computations, labeled by result.",
	}, []string{"result"}), "natal_charts_total")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "natal_cache_lookups_total",
		Help: "Chart cache lookups, labeled hit or miss.",
	}, []string{"outcome"}), "natal_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	fetch, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natal_ephemeris_fetch_seconds",
		Help:    "Ephemeris provider latency in seconds.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"}), "natal_ephemeris_fetch_seconds")
	if err != nil {
		return nil, err
	}

	fetchErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "natal_ephemeris_errors_total",
		Help: "Failed ephemeris fetches, labeled by provider.",
	}, []string{"provider"}), "natal_ephemeris_errors_total")
	if err != nil {
		return nil, err
	}

	aspects, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "natal_aspects_total",
		Help: "Aspects found at the interpretation orb, labeled by type.",
	}, []string{"type"}), "natal_aspects_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "natal_skipped_lines_total",
		Help: "Aspect lines left off the wheel for bodies without a position.",
	}), "natal_skipped_lines_total")
	if err != nil {
		return nil, err
	}

	entries, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "natal_cache_entries",
		Help: "Charts currently held in the cache.",
	}), "natal_cache_entries")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "natal_http_requests_total",
		Help: "HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}), "natal_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natal_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route"}), "natal_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Charts:        charts,
		CacheLookups:  lookups,
		FetchDuration: fetch,
		FetchErrors:   fetchErrors,
		Aspects:       aspects,
		SkippedLines:  skipped,
		CacheEntries:  entries,
		HTTPRequests:  requests,
		HTTPDurations: durations,
	}, nil
}

// ObserveFetch records one provider call.
func (c *Collector) ObserveFetch(provider string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.FetchDuration.WithLabelValues(provider).Observe(d.Seconds())
	if err != nil {
		c.FetchErrors.WithLabelValues(provider).Inc()
	}
}

// ObserveChart records the outcome of Service.Compute.
func (c *Collector) ObserveChart(ch *natal.Chart, cached bool, err error) {
	if c == nil {
		return
	}
	if err == nil {
		if cached {
			c.CacheLookups.WithLabelValues("hit").Inc()
		} else {
			c.CacheLookups.WithLabelValues("miss").Inc()
		}
	}
	c.Charts.WithLabelValues(chartResult(ch, err)).Inc()
	if ch == nil || cached {
		return
	}
	for _, a := range ch.Aspects {
		c.Aspects.WithLabelValues(a.Type.String()).Inc()
	}
	if ch.Wheel.Skipped > 0 {
		c.SkippedLines.Add(float64(ch.Wheel.Skipped))
	}
}

// SetCacheEntries updates the cache size gauge.
func (c *Collector) SetCacheEntries(n int) {
	if c == nil {
		return
	}
	c.CacheEntries.Set(float64(n))
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(route).Observe(d.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func chartResult(ch *natal.Chart, err error) string {
	switch {
	case errors.Is(err, natal.ErrInvalidRequest):
		return ResultInvalid
	case errors.Is(err, natal.ErrEphemeris):
		return ResultEphemeris
	case err != nil:
		return ResultError
	case ch != nil && ch.Partial():
		return ResultPartial
	default:
		return ResultOK
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
