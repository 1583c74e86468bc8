package astro

import (
	"math"
	"time"
)

// SunEclipticLongitude returns the apparent geocentric ecliptic longitude of
// the Sun in degrees. Uses a simplified solar ephemeris based on the
// Astronomical Almanac; accuracy is about 0.01 degrees.
func SunEclipticLongitude(t time.Time) float64 {
	T := JulianCenturies(t)

	// Mean longitude of the Sun (degrees)
	L0 := NormalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)

	// Mean anomaly of the Sun (degrees)
	M := NormalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := DegToRad(M)

	// Sun's equation of center (degrees)
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	// Apparent longitude (correcting for aberration and nutation)
	omega := 125.04 - 1934.136*T
	return NormalizeAngle360(L0 + C - 0.00569 - 0.00478*math.Sin(DegToRad(omega)))
}
