// Package natal assembles natal charts from ephemeris longitudes and
// renders them for export.
package natal

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("natal: invalid request")

	// ErrEphemeris wraps failures of the ephemeris provider.
	ErrEphemeris = errors.New("natal: ephemeris unavailable")
)

// Request describes the moment and place a chart is cast for.
type Request struct {
	Time        time.Time
	Observer    astro.Observer
	HouseSystem chart.HouseSystem
	Label       string // display only; not part of the fingerprint
}

// Validate checks the request can be computed.
func (r Request) Validate() error {
	if r.Time.IsZero() {
		return fmt.Errorf("%w: missing time", ErrInvalidRequest)
	}
	if !r.Observer.Valid() || math.IsInf(r.Observer.LatDeg, 0) || math.IsInf(r.Observer.LonDeg, 0) {
		return fmt.Errorf("%w: observer %.4f,%.4f off the globe", ErrInvalidRequest, r.Observer.LatDeg, r.Observer.LonDeg)
	}
	if r.HouseSystem < chart.HouseEqual || r.HouseSystem > chart.HouseKoch {
		return fmt.Errorf("%w: unknown house system %d", ErrInvalidRequest, r.HouseSystem)
	}
	return nil
}

// canonical renders the fields that decide a chart's content.
// Time is kept to the second in UTC; coordinates to 1e-6 degrees.
func (r Request) canonical() []byte {
	b := make([]byte, 0, 64)
	b = r.Time.UTC().Truncate(time.Second).AppendFormat(b, time.RFC3339)
	b = append(b, '|')
	b = strconv.AppendFloat(b, r.Observer.LatDeg, 'f', 6, 64)
	b = append(b, '|')
	b = strconv.AppendFloat(b, r.Observer.LonDeg, 'f', 6, 64)
	b = append(b, '|')
	b = append(b, r.HouseSystem.String()...)
	return b
}

// Fingerprint identifies the request for caching.
func (r Request) Fingerprint() uint64 {
	return xxhash.Sum64(r.canonical())
}

// FingerprintHex is Fingerprint formatted for display.
func (r Request) FingerprintHex() string {
	return fmt.Sprintf("%016x", r.Fingerprint())
}

// DefaultClock is used when a birth time is unknown.
const DefaultClock = "12:00"

// ParseMoment combines a YYYY-MM-DD date and an HH:MM[:SS] clock read in
// loc (UTC when nil). An empty clock means DefaultClock.
func ParseMoment(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", ErrInvalidRequest)
	}
	if clock == "" {
		clock = DefaultClock
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot read %q %q as YYYY-MM-DD HH:MM", ErrInvalidRequest, date, clock)
}
