package astro

import (
	"math"
	"testing"
	"time"
)

func TestEclipticLongitude(t *testing.T) {
	tests := []struct {
		v    Vec3
		want float64
	}{
		{Vec3{X: 1}, 0},
		{Vec3{Y: 1}, 90},
		{Vec3{X: -1}, 180},
		{Vec3{Y: -1}, 270},
		{Vec3{X: 1, Y: 1, Z: 5}, 45},
	}
	for _, tt := range tests {
		if got := EclipticLongitude(tt.v); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EclipticLongitude(%+v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.0167, 0.2, 0.5, 0.9} {
		for M := -math.Pi; M <= math.Pi; M += 0.5 {
			E := SolveKepler(M, e)
			if res := E - e*math.Sin(E) - M; math.Abs(res) > 1e-9 {
				t.Errorf("SolveKepler(%v, %v) residual %v", M, e, res)
			}
		}
	}
}

func TestOrbitalElements_CircularOrbit(t *testing.T) {
	el := OrbitalElements{A: 2, L: 90}
	pos := el.Heliocentric()
	if math.Abs(pos.X) > 1e-9 || math.Abs(pos.Y-2) > 1e-9 || math.Abs(pos.Z) > 1e-9 {
		t.Errorf("Heliocentric() = %+v, want (0, 2, 0)", pos)
	}
}

func TestOrbitalElements_Inclined(t *testing.T) {
	// At 90° past the ascending node an inclined circular orbit reaches its
	// highest point above the ecliptic.
	el := OrbitalElements{A: 1, I: 10, Node: 0, Perihelion: 0, L: 90}
	pos := el.Heliocentric()
	lat := RadToDeg(math.Asin(pos.Z))
	if math.Abs(lat-10) > 1e-6 {
		t.Errorf("latitude = %v, want 10", lat)
	}
}

func TestPrecessionJ2000(t *testing.T) {
	if got := PrecessionJ2000(0); got != 0 {
		t.Errorf("PrecessionJ2000(0) = %v", got)
	}
	T := JulianCenturies(time.Date(2100, 1, 1, 12, 0, 0, 0, time.UTC))
	if got := PrecessionJ2000(T); math.Abs(got-1.397) > 0.01 {
		t.Errorf("PrecessionJ2000(one century) = %v, want ~1.397", got)
	}
}
