package chart

import (
	"fmt"
	"math"
)

// SignWidth is the width of one zodiac sign in degrees.
const SignWidth = 30.0

// Sign is one of the twelve 30° segments of the ecliptic, starting at Aries = 0°.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [...]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signGlyphs = [...]rune{'♈', '♉', '♊', '♋', '♌', '♍', '♎', '♏', '♐', '♑', '♒', '♓'}

// Element is the classical element of a sign.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality is the quality of a sign.
type Modality string

const (
	Cardinal Modality = "cardinal"
	Fixed    Modality = "fixed"
	Mutable  Modality = "mutable"
)

// String returns the sign name.
func (s Sign) String() string {
	if s < Aries || s > Pisces {
		return "Unknown"
	}
	return signNames[s]
}

// Glyph returns the zodiac symbol.
func (s Sign) Glyph() rune {
	if s < Aries || s > Pisces {
		return '?'
	}
	return signGlyphs[s]
}

// Element cycles fire, earth, air, water from Aries.
func (s Sign) Element() Element {
	return [...]Element{Fire, Earth, Air, Water}[int(s)%4]
}

// Modality cycles cardinal, fixed, mutable from Aries.
func (s Sign) Modality() Modality {
	return [...]Modality{Cardinal, Fixed, Mutable}[int(s)%3]
}

// StartLongitude returns the ecliptic longitude of the sign's first degree.
func (s Sign) StartLongitude() float64 {
	return float64(s) * SignWidth
}

// MarshalText encodes the sign by name.
func (s Sign) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SignPlacement is the sign/degree view of an ecliptic longitude.
// Invariant: Sign*30 + Degree ≡ longitude (mod 360), 0 <= Degree < 30.
type SignPlacement struct {
	Sign   Sign    `json:"sign"`
	Degree float64 `json:"degree"`
}

// Longitude reconstructs the absolute ecliptic longitude.
func (p SignPlacement) Longitude() float64 {
	return float64(p.Sign)*SignWidth + p.Degree
}

// DegreeMinute splits the in-sign degree into whole degrees and arc minutes.
// Minutes are truncated so a placement never rounds into the next sign.
func (p SignPlacement) DegreeMinute() (deg, minute int) {
	total := int(math.Floor(p.Degree*60 + 1e-7))
	if total >= 30*60 {
		total = 30*60 - 1
	}
	if total < 0 {
		total = 0
	}
	return total / 60, total % 60
}

// String formats the placement as e.g. "15°42' Leo".
func (p SignPlacement) String() string {
	d, m := p.DegreeMinute()
	return fmt.Sprintf("%d°%02d' %s", d, m, p.Sign)
}

// NormalizeLongitude reduces any finite angle into [0, 360).
func NormalizeLongitude(lon float64) (float64, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, fmt.Errorf("%w: %v", ErrMalformedLongitude, lon)
	}
	l := math.Mod(lon, 360)
	if l < 0 {
		l += 360
	}
	// -tiny + 360 rounds to 360 in float64; Mod of a negative multiple
	// of 360 is -0.
	if l >= 360 || l == 0 {
		l = 0
	}
	return l, nil
}

// Place maps an ecliptic longitude to its sign and degree within the sign.
// Un-normalized input is reduced modulo 360 first.
func Place(lon float64) (SignPlacement, error) {
	l, err := NormalizeLongitude(lon)
	if err != nil {
		return SignPlacement{}, err
	}
	idx := int(math.Floor(l / SignWidth))
	if idx < 0 {
		idx = 0
	} else if idx > 11 {
		idx = 11
	}
	return SignPlacement{
		Sign:   Sign(idx),
		Degree: l - float64(idx)*SignWidth,
	}, nil
}

// BodyPlacement pairs a body with its sign placement.
type BodyPlacement struct {
	Body      Body          `json:"body"`
	Placement SignPlacement `json:"placement"`
}

// PlaceAll maps every sample in order. It fails on the first malformed
// longitude or repeated body.
func PlaceAll(lons []CelestialLongitude) ([]BodyPlacement, error) {
	out := make([]BodyPlacement, 0, len(lons))
	seen := make(map[Body]bool, len(lons))
	for _, cl := range lons {
		if seen[cl.Body] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBody, cl.Body)
		}
		seen[cl.Body] = true

		p, err := Place(cl.Longitude)
		if err != nil {
			return nil, fmt.Errorf("place %s: %w", cl.Body, err)
		}
		out = append(out, BodyPlacement{Body: cl.Body, Placement: p})
	}
	return out, nil
}
