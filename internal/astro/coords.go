// Package astro provides astronomical time and angle math used to derive
// chart angles and low-precision body positions.
package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch.
const J2000 = 2451545.0

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// Valid reports whether the coordinates are finite and on the globe.
func (o Observer) Valid() bool {
	if math.IsNaN(o.LatDeg) || math.IsNaN(o.LonDeg) {
		return false
	}
	return o.LatDeg >= -90 && o.LatDeg <= 90 && o.LonDeg >= -180 && o.LonDeg <= 180
}

// LocalSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return NormalizeAngle360(GreenwichMeanSiderealTime(t) + lonDeg)
}

// GreenwichMeanSiderealTime calculates GMST in degrees for a given UTC time.
// Uses the IAU formula based on Julian Date.
func GreenwichMeanSiderealTime(t time.Time) float64 {
	jd := JulianDate(t)

	// Julian centuries since J2000.0
	T := (jd - J2000) / 36525.0

	// GMST in degrees (IAU 1982 formula)
	// GMST = 280.46061837 + 360.98564736629*(JD-2451545) + 0.000387933*T^2 - T^3/38710000
	gmst := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return NormalizeAngle360(gmst)
}

// JulianDate calculates the Julian Date for a given time.
func JulianDate(t time.Time) float64 {
	// Convert to UTC
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Time of day as fraction
	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// Adjust for January/February (treat as months 13/14 of previous year)
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

// JulianCenturies returns Julian centuries elapsed since J2000.0.
func JulianCenturies(t time.Time) float64 {
	return (JulianDate(t) - J2000) / 36525.0
}

// MeanObliquity returns the mean obliquity of the ecliptic in degrees.
func MeanObliquity(t time.Time) float64 {
	T := JulianCenturies(t)
	return 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
}

// Ascendant returns the ecliptic longitude rising on the eastern horizon
// for an observer at time t.
func Ascendant(t time.Time, obs Observer) float64 {
	ramc := LocalSiderealTime(t, obs.LonDeg)
	return AscendantFromRAMC(ramc, obs.LatDeg, MeanObliquity(t))
}

// AscendantFromRAMC computes the Ascendant from the right ascension of the
// meridian, geographic latitude and obliquity, all in degrees.
func AscendantFromRAMC(ramcDeg, latDeg, oblDeg float64) float64 {
	ramc := DegToRad(ramcDeg)
	eps := DegToRad(oblDeg)
	lat := DegToRad(latDeg)

	asc := math.Atan2(math.Cos(ramc), -(math.Sin(ramc)*math.Cos(eps) + math.Tan(lat)*math.Sin(eps)))
	return NormalizeAngle360(RadToDeg(asc))
}

// Midheaven returns the ecliptic longitude culminating on the meridian.
func Midheaven(t time.Time, obs Observer) float64 {
	return MidheavenFromRAMC(LocalSiderealTime(t, obs.LonDeg), MeanObliquity(t))
}

// MidheavenFromRAMC computes the Midheaven from the right ascension of the
// meridian and the obliquity, in degrees.
func MidheavenFromRAMC(ramcDeg, oblDeg float64) float64 {
	ramc := DegToRad(ramcDeg)
	eps := DegToRad(oblDeg)
	mc := math.Atan2(math.Sin(ramc), math.Cos(ramc)*math.Cos(eps))
	return NormalizeAngle360(RadToDeg(mc))
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeAngle360 normalizes an angle to 0-360 degrees.
func NormalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// NormalizeAngle180 normalizes an angle to -180..180 degrees.
func NormalizeAngle180(a float64) float64 {
	a = NormalizeAngle360(a)
	if a > 180 {
		a -= 360
	}
	return a
}
