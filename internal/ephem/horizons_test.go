package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/astro"
	"github.com/litescript/ls-natal/internal/chart"
)

// fakeHorizons serves one ecliptic row per request, with the longitude
// derived from the NAIF id so each body gets a distinct value.
func fakeHorizons(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		q := r.URL.Query()
		assert.Equal(t, "'31'", q.Get("QUANTITIES"))
		assert.Equal(t, "OBSERVER", q.Get("EPHEM_TYPE"))
		assert.Equal(t, "'500@399'", q.Get("CENTER"))

		var id int
		if _, err := fmt.Sscanf(strings.Trim(q.Get("COMMAND"), "'"), "%d", &id); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result := fmt.Sprintf("header\n$$SOE\n 2024-Jan-25 17:54 *m  %.7f  0.1234567\n 2024-Jan-25 17:55 *m  %.7f  0.1234567\n$$EOE\nfooter",
			float64(id%360)+0.5, float64(id%360)+0.6)
		_ = json.NewEncoder(w).Encode(map[string]string{"result": result})
	}))
}

func testOptions(url string) HorizonsOptions {
	return HorizonsOptions{
		BaseURL:       url,
		Timeout:       5 * time.Second,
		RatePerSecond: 1000,
		Burst:         100,
		Concurrency:   4,
		CacheTTL:      time.Minute,
	}
}

func TestHorizonsProvider_Longitudes(t *testing.T) {
	var hits int32
	srv := fakeHorizons(t, &hits)
	defer srv.Close()

	p := NewHorizonsProvider(testOptions(srv.URL), nil)
	obs := astro.Observer{LatDeg: 35.4, LonDeg: -116.9}
	at := time.Date(2024, 1, 25, 17, 54, 30, 0, time.UTC)

	lons, err := p.Longitudes(context.Background(), at, obs)
	require.NoError(t, err)
	require.Len(t, lons, len(Targets)+2)
	assert.EqualValues(t, len(Targets), atomic.LoadInt32(&hits))

	for i, target := range Targets {
		assert.Equal(t, target.Body, lons[i].Body)
		assert.InDelta(t, float64(int(target.NAIFID)%360)+0.5, lons[i].Longitude, 1e-9)
	}
	assert.Equal(t, chart.Ascendant, lons[len(Targets)].Body)

	// Same minute is served from cache.
	_, err = p.Longitudes(context.Background(), at.Add(10*time.Second), obs)
	require.NoError(t, err)
	assert.EqualValues(t, len(Targets), atomic.LoadInt32(&hits))

	p.InvalidateCache()
	_, err = p.Longitudes(context.Background(), at, obs)
	require.NoError(t, err)
	assert.EqualValues(t, 2*len(Targets), atomic.LoadInt32(&hits))
}

func TestHorizonsProvider_CacheExpiry(t *testing.T) {
	var hits int32
	srv := fakeHorizons(t, &hits)
	defer srv.Close()

	p := NewHorizonsProvider(testOptions(srv.URL), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	at := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err := p.Longitudes(context.Background(), at, astro.Observer{})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = p.Longitudes(context.Background(), at, astro.Observer{})
	require.NoError(t, err)
	assert.EqualValues(t, 2*len(Targets), atomic.LoadInt32(&hits))
}

func TestHorizonsProvider_CacheStaysBounded(t *testing.T) {
	var hits int32
	srv := fakeHorizons(t, &hits)
	defer srv.Close()

	p := NewHorizonsProvider(testOptions(srv.URL), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	at := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		_, err := p.Longitudes(context.Background(), at.Add(time.Duration(i)*time.Minute), astro.Observer{})
		require.NoError(t, err)
		assert.LessOrEqual(t, p.cacheLen(), len(Targets), "after request %d", i)
		now = now.Add(time.Hour)
	}
	assert.EqualValues(t, 50*len(Targets), atomic.LoadInt32(&hits))

	// Stale entries from the last minute are swept on the next write.
	_, err := p.Longitudes(context.Background(), at, astro.Observer{})
	require.NoError(t, err)
	assert.Equal(t, len(Targets), p.cacheLen())
}

func TestHorizonsProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHorizonsProvider(testOptions(srv.URL), nil)
	_, err := p.Longitudes(context.Background(), time.Now(), astro.Observer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHorizonsProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no such object"})
	}))
	defer srv.Close()

	p := NewHorizonsProvider(testOptions(srv.URL), nil)
	_, err := p.Longitudes(context.Background(), time.Now(), astro.Observer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such object")
}

func TestHorizonsProvider_InvalidObserver(t *testing.T) {
	p := NewHorizonsProvider(HorizonsOptions{}, nil)
	_, err := p.Longitudes(context.Background(), time.Now(), astro.Observer{LonDeg: 200})
	assert.ErrorIs(t, err, ErrInvalidObserver)
}

func TestParseEphemerisLine(t *testing.T) {
	tests := []struct {
		line    string
		wantLon float64
		wantLat float64
		wantErr bool
	}{
		{
			line:    "2024-Jan-25 17:54     124.8630712   0.1432553",
			wantLon: 124.8630712,
			wantLat: 0.1432553,
		},
		{
			line:    "2024-Jan-25 17:54 *m  305.2210045  -0.0000321",
			wantLon: 305.2210045,
			wantLat: -0.0000321,
		},
		{
			line:    "2024-Jan-25 17:54:00.000 Cm  12.5  -5.25",
			wantLon: 12.5,
			wantLat: -5.25,
		},
		{
			line:    "invalid",
			wantErr: true,
		},
		{
			line:    "2024-Jan-25 17:54 * n.a. n.a.",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		name := tc.line
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			row, err := parseEphemerisLine(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if row.Longitude != tc.wantLon {
				t.Errorf("Lon = %v, want %v", row.Longitude, tc.wantLon)
			}
			if row.Latitude != tc.wantLat {
				t.Errorf("Lat = %v, want %v", row.Latitude, tc.wantLat)
			}
			if row.Time.Hour() != 17 || row.Time.Minute() != 54 {
				t.Errorf("Time = %v", row.Time)
			}
		})
	}
}

func TestParseEphemerisTable_NoMarkers(t *testing.T) {
	_, err := parseEphemerisTable("no data here")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = parseEphemerisTable("$$SOE\n garbage \n$$EOE")
	assert.ErrorIs(t, err, ErrNoData)
}
