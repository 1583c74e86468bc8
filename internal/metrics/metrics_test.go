package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/natal"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c, reg
}

func TestNewCollector_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	first.Charts.WithLabelValues(ResultOK).Inc()
	if got := testutil.ToFloat64(second.Charts.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("second collector sees %v, want 1", got)
	}
}

func TestObserveChart(t *testing.T) {
	c, _ := newCollector(t)

	ch := &natal.Chart{
		Aspects: []chart.Aspect{
			{A: chart.Sun, B: chart.Moon, Type: chart.Square},
			{A: chart.Sun, B: chart.Mars, Type: chart.Square},
			{A: chart.Moon, B: chart.Venus, Type: chart.Trine},
		},
		Wheel: chart.Wheel{Skipped: 2},
	}
	c.ObserveChart(ch, false, nil)

	if got := testutil.ToFloat64(c.Charts.WithLabelValues(ResultOK)); got != 1 {
		t.Errorf("charts{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Aspects.WithLabelValues("Square")); got != 2 {
		t.Errorf("aspects{Square} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Aspects.WithLabelValues("Trine")); got != 1 {
		t.Errorf("aspects{Trine} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.SkippedLines); got != 2 {
		t.Errorf("skipped lines = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.CacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache miss = %v, want 1", got)
	}

	// A cache hit counts the lookup but not the aspects again.
	c.ObserveChart(ch, true, nil)
	if got := testutil.ToFloat64(c.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Aspects.WithLabelValues("Square")); got != 2 {
		t.Errorf("aspects{Square} after hit = %v, want 2", got)
	}
}

func TestObserveChart_Results(t *testing.T) {
	tests := []struct {
		name  string
		chart *natal.Chart
		err   error
		want  string
	}{
		{"ok", &natal.Chart{}, nil, ResultOK},
		{"partial", &natal.Chart{Warnings: []string{"houses omitted"}}, nil, ResultPartial},
		{"invalid", nil, fmt.Errorf("%w: missing time", natal.ErrInvalidRequest), ResultInvalid},
		{"ephemeris", nil, fmt.Errorf("%w: timeout", natal.ErrEphemeris), ResultEphemeris},
		{"other", nil, errors.New("boom"), ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCollector(t)
			c.ObserveChart(tt.chart, false, tt.err)
			if got := testutil.ToFloat64(c.Charts.WithLabelValues(tt.want)); got != 1 {
				t.Errorf("charts{%s} = %v, want 1", tt.want, got)
			}
		})
	}
}

func TestObserveFetch(t *testing.T) {
	c, reg := newCollector(t)

	c.ObserveFetch("Horizons", 120*time.Millisecond, nil)
	c.ObserveFetch("Horizons", 2*time.Second, errors.New("timeout"))

	if count := histogramSampleCount(t, reg, "natal_ephemeris_fetch_seconds", map[string]string{
		"provider": "Horizons",
	}); count != 2 {
		t.Errorf("fetch sample_count = %d, want 2", count)
	}
	if got := testutil.ToFloat64(c.FetchErrors.WithLabelValues("Horizons")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveFetch("x", time.Second, nil)
	c.ObserveChart(nil, false, nil)
	c.SetCacheEntries(3)
	c.ObserveHTTP("/api/chart", 200, time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c, _ := newCollector(t)
	c.SetCacheEntries(7)
	c.ObserveHTTP("/api/chart", http.StatusOK, 10*time.Millisecond)
	c.ObserveChart(&natal.Chart{}, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"natal_charts_total",
		"natal_cache_entries 7",
		`natal_http_requests_total{code="200",route="/api/chart"} 1`,
		"natal_http_request_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
