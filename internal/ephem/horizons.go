package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/logging"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// LongitudeCacheTTL is how long fetched longitudes are reused.
	LongitudeCacheTTL = 10 * time.Minute
)

// HorizonsOptions configures the Horizons client.
type HorizonsOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64 // request rate across all bodies
	Burst         int
	Concurrency   int // simultaneous requests
	CacheTTL      time.Duration
}

// DefaultHorizonsOptions returns polite defaults for the public API.
func DefaultHorizonsOptions() HorizonsOptions {
	return HorizonsOptions{
		BaseURL:       HorizonsAPIURL,
		Timeout:       RequestTimeout,
		RatePerSecond: 4,
		Burst:         2,
		Concurrency:   3,
		CacheTTL:      LongitudeCacheTTL,
	}
}

func (o HorizonsOptions) withDefaults() HorizonsOptions {
	def := DefaultHorizonsOptions()
	if o.BaseURL == "" {
		o.BaseURL = def.BaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = def.RatePerSecond
	}
	if o.Burst <= 0 {
		o.Burst = def.Burst
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = def.CacheTTL
	}
	return o
}

// HorizonsProvider queries JPL Horizons for geocentric ecliptic longitudes.
type HorizonsProvider struct {
	client  *http.Client
	opts    HorizonsOptions
	limiter *rate.Limiter
	log     *logging.Logger

	mu    sync.RWMutex
	cache map[cacheKey]cachedLongitude

	now func() time.Time
}

// cacheKey identifies one body at one minute. Geocentric longitudes do not
// depend on the observer.
type cacheKey struct {
	body   chart.Body
	minute int64
}

type cachedLongitude struct {
	lon       float64
	fetchedAt time.Time
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(opts HorizonsOptions, log *logging.Logger) *HorizonsProvider {
	opts = opts.withDefaults()
	if log == nil {
		log = logging.Discard()
	}
	return &HorizonsProvider{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		log:     log.WithComponent("horizons"),
		cache:   make(map[cacheKey]cachedLongitude),
		now:     time.Now,
	}
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Longitudes implements Provider. Bodies are fetched concurrently; any
// failure cancels the rest and fails the whole call.
func (p *HorizonsProvider) Longitudes(ctx context.Context, t time.Time, obs astro.Observer) ([]chart.CelestialLongitude, error) {
	if !obs.Valid() {
		return nil, ErrInvalidObserver
	}
	t = t.UTC().Truncate(time.Minute)

	out := make([]chart.CelestialLongitude, len(Targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, target := range Targets {
		i, target := i, target
		g.Go(func() error {
			lon, err := p.longitude(gctx, target, t)
			if err != nil {
				return fmt.Errorf("%s: %w", target.Body, err)
			}
			out[i] = chart.CelestialLongitude{Body: target.Body, Longitude: lon}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(out, localAngles(t, obs)...), nil
}

// InvalidateCache drops every cached longitude.
func (p *HorizonsProvider) InvalidateCache() {
	p.mu.Lock()
	p.cache = make(map[cacheKey]cachedLongitude)
	p.mu.Unlock()
}

func (p *HorizonsProvider) longitude(ctx context.Context, target TargetInfo, t time.Time) (float64, error) {
	key := cacheKey{body: target.Body, minute: t.Unix() / 60}

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		if p.now().Sub(cached.fetchedAt) < p.opts.CacheTTL {
			return cached.lon, nil
		}
		p.mu.Lock()
		if c, still := p.cache[key]; still && c.fetchedAt.Equal(cached.fetchedAt) {
			delete(p.cache, key)
		}
		p.mu.Unlock()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	start := p.now()
	lon, err := p.queryHorizons(ctx, target, t)
	if err != nil {
		p.log.WithFields(logging.Fields{"body": target.Body.String()}).WithError(err).Warn("horizons query failed")
		return 0, err
	}
	p.log.Debug("fetched %s in %v: %.4f", target.Body, p.now().Sub(start), lon)

	now := p.now()
	p.mu.Lock()
	p.pruneLocked(now)
	p.cache[key] = cachedLongitude{lon: lon, fetchedAt: now}
	p.mu.Unlock()
	return lon, nil
}

// pruneLocked drops expired longitudes so the cache only ever holds
// entries younger than the TTL. p.mu must be held for writing.
func (p *HorizonsProvider) pruneLocked(now time.Time) {
	for k, c := range p.cache {
		if now.Sub(c.fetchedAt) >= p.opts.CacheTTL {
			delete(p.cache, k)
		}
	}
}

// cacheLen reports how many longitudes are cached.
func (p *HorizonsProvider) cacheLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// queryHorizons makes a request to the Horizons API.
func (p *HorizonsProvider) queryHorizons(ctx context.Context, target TargetInfo, t time.Time) (float64, error) {
	// Build request parameters - values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%s'", target.Command()))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'500@399'") // geocenter
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t.Add(time.Minute))))
	params.Set("STEP_SIZE", "'1 m'")
	params.Set("QUANTITIES", "'31'") // 31=Observer ecliptic lon/lat

	reqURL := p.opts.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	rows, err := parseHorizonsResponse(body)
	if err != nil {
		return 0, err
	}
	return rows[0].Longitude, nil
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// eclipticRow is one row of a QUANTITIES='31' table.
type eclipticRow struct {
	Time      time.Time
	Longitude float64
	Latitude  float64
}

// parseHorizonsResponse parses the Horizons JSON response.
func parseHorizonsResponse(body []byte) ([]eclipticRow, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("horizons error: %s", resp.Error)
	}

	// The actual ephemeris data is in resp.Result as a text blob
	return parseEphemerisTable(resp.Result)
}

// parseEphemerisTable extracts rows from the Horizons text output.
func parseEphemerisTable(result string) ([]eclipticRow, error) {
	// Find the data section between $$SOE and $$EOE markers
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("%w: could not find ephemeris data markers", ErrNoData)
	}

	var rows []eclipticRow
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

// parseEphemerisLine parses a single ephemeris data line.
// Format for QUANTITIES='31' (ObsEcLon/ObsEcLat):
// 2024-Jan-25 17:54     124.8630712   0.1432553
// Fields: date, time, optional flags, longitude, latitude
func parseEphemerisLine(line string) (eclipticRow, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return eclipticRow{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return eclipticRow{}, err
	}

	// Skip any flag fields (like *, m, Cm, Nm, Am, etc.)
	var nums []float64
	for _, f := range fields[2:] {
		if val, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, val)
			if len(nums) == 2 {
				break
			}
		}
	}
	if len(nums) < 2 {
		return eclipticRow{}, fmt.Errorf("could not find ecliptic lon/lat values")
	}

	return eclipticRow{Time: t, Longitude: nums[0], Latitude: nums[1]}, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04", "2006-Jan-02 15:04:05", "2006-Jan-02 15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
