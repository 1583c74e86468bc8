package astro

import (
	"math"
)

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// EclipticLongitude returns the ecliptic longitude in degrees for a vector.
func EclipticLongitude(v Vec3) float64 {
	return NormalizeAngle360(RadToDeg(math.Atan2(v.Y, v.X)))
}

// OrbitalElements are Keplerian elements referred to the J2000 ecliptic,
// angles in degrees and the semi-major axis in AU.
type OrbitalElements struct {
	A          float64 // semi-major axis
	E          float64 // eccentricity
	I          float64 // inclination
	L          float64 // mean longitude
	Perihelion float64 // longitude of perihelion
	Node       float64 // longitude of the ascending node
}

// Heliocentric returns the heliocentric ecliptic position in AU.
func (el OrbitalElements) Heliocentric() Vec3 {
	omega := DegToRad(el.Perihelion - el.Node) // argument of perihelion
	node := DegToRad(el.Node)
	inc := DegToRad(el.I)

	M := DegToRad(NormalizeAngle180(el.L - el.Perihelion))
	E := SolveKepler(M, el.E)

	// Position in the orbital plane
	xp := el.A * (math.Cos(E) - el.E)
	yp := el.A * math.Sqrt(1-el.E*el.E) * math.Sin(E)

	cw, sw := math.Cos(omega), math.Sin(omega)
	cn, sn := math.Cos(node), math.Sin(node)
	ci, si := math.Cos(inc), math.Sin(inc)

	return Vec3{
		X: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		Y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		Z: (sw*si)*xp + (cw*si)*yp,
	}
}

// SolveKepler solves Kepler's equation E - e·sin(E) = M for the eccentric
// anomaly (radians) by Newton iteration.
func SolveKepler(M, e float64) float64 {
	E := M
	if e > 0.8 {
		E = math.Copysign(math.Pi, M)
	}
	for i := 0; i < 30; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// PrecessionJ2000 returns the accumulated general precession in longitude,
// in degrees, from J2000 to T Julian centuries.
func PrecessionJ2000(T float64) float64 {
	return 1.396971*T + 0.0003086*T*T
}
