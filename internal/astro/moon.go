package astro

import (
	"math"
	"time"
)

// moonTerm is one periodic term of the lunar longitude series:
// coefficient * sin(d*D + m*M + mp*M' + f*F).
type moonTerm struct {
	coef        float64
	d, m, mp, f float64
}

// Largest terms of the lunar longitude, good to a few tenths of a degree.
var moonTerms = []moonTerm{
	{6.289, 0, 0, 1, 0},
	{1.274, 2, 0, -1, 0},
	{0.658, 2, 0, 0, 0},
	{0.214, 0, 0, 2, 0},
	{-0.186, 0, 1, 0, 0},
	{-0.114, 0, 0, 0, 2},
	{0.059, 2, 0, -2, 0},
	{0.057, 2, -1, -1, 0},
	{0.053, 2, 0, 1, 0},
	{0.046, 2, -1, 0, 0},
	{-0.041, 0, 1, -1, 0},
	{-0.035, 1, 0, 0, 0},
	{-0.031, 0, 1, 1, 0},
}

// MoonEclipticLongitude returns the Moon's geocentric ecliptic longitude in
// degrees from a truncated periodic series.
func MoonEclipticLongitude(t time.Time) float64 {
	T := JulianCenturies(t)

	Lp := 218.3164477 + 481267.88123421*T // mean longitude
	D := 297.8501921 + 445267.1114034*T   // mean elongation
	M := 357.5291092 + 35999.0502909*T    // Sun's mean anomaly
	Mp := 134.9633964 + 477198.8675055*T  // Moon's mean anomaly
	F := 93.2720950 + 483202.0175233*T    // argument of latitude

	lon := Lp
	for _, term := range moonTerms {
		arg := term.d*D + term.m*M + term.mp*Mp + term.f*F
		lon += term.coef * math.Sin(DegToRad(NormalizeAngle360(arg)))
	}
	return NormalizeAngle360(lon)
}

// MeanNodeLongitude returns the longitude of the Moon's mean ascending node.
func MeanNodeLongitude(t time.Time) float64 {
	T := JulianCenturies(t)
	return NormalizeAngle360(125.0445479 - 1934.1362891*T + 0.0020754*T*T)
}
