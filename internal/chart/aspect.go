package chart

import (
	"fmt"
	"math"
)

// Orb tolerances used by the two consuming views. The wheel draws aspect
// lines with a tighter orb than the textual interpretation list; both are
// kept as separate knobs and injected per call.
const (
	WheelOrb          = 4.0
	InterpretationOrb = 5.0
)

// AspectType is a named angular relationship between two bodies.
type AspectType int

const (
	Conjunction AspectType = iota
	Sextile
	Square
	Trine
	Opposition
)

// aspectTypes is ordered by ascending exact angle; classification relies
// on this order for its tie-break.
var aspectTypes = [...]AspectType{Conjunction, Sextile, Square, Trine, Opposition}

var aspectAngles = [...]float64{
	Conjunction: 0,
	Sextile:     60,
	Square:      90,
	Trine:       120,
	Opposition:  180,
}

var aspectNames = [...]string{
	Conjunction: "Conjunction",
	Sextile:     "Sextile",
	Square:      "Square",
	Trine:       "Trine",
	Opposition:  "Opposition",
}

var aspectGlyphs = [...]rune{
	Conjunction: '☌',
	Sextile:     '⚹',
	Square:      '□',
	Trine:       '△',
	Opposition:  '☍',
}

// AspectTypes returns the fixed aspect set in ascending angle order.
func AspectTypes() []AspectType {
	out := make([]AspectType, len(aspectTypes))
	copy(out, aspectTypes[:])
	return out
}

func (t AspectType) valid() bool { return t >= Conjunction && t <= Opposition }

// Angle returns the exact angle of the aspect in degrees.
func (t AspectType) Angle() float64 {
	if !t.valid() {
		return math.NaN()
	}
	return aspectAngles[t]
}

// String returns the aspect name.
func (t AspectType) String() string {
	if !t.valid() {
		return "Unknown"
	}
	return aspectNames[t]
}

// Glyph returns the aspect symbol.
func (t AspectType) Glyph() rune {
	if !t.valid() {
		return '?'
	}
	return aspectGlyphs[t]
}

// Tag is the rendering category of an aspect: "soft" for sextile and trine,
// "hard" for square and opposition, "neutral" for conjunction.
func (t AspectType) Tag() string {
	switch t {
	case Sextile, Trine:
		return "soft"
	case Square, Opposition:
		return "hard"
	default:
		return "neutral"
	}
}

// MarshalText encodes the aspect type by name.
func (t AspectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Aspect is a detected relationship between two distinct bodies. A and B are
// unordered; A is the body that came first in the input.
type Aspect struct {
	A          Body       `json:"a"`
	B          Body       `json:"b"`
	Type       AspectType `json:"type"`
	Orb        float64    `json:"orb"`
	Separation float64    `json:"separation"`
}

// Involves reports whether b is one of the aspect's bodies.
func (a Aspect) Involves(b Body) bool {
	return a.A == b || a.B == b
}

// Other returns the partner of b in the aspect. ok is false if b is not involved.
func (a Aspect) Other(b Body) (Body, bool) {
	switch b {
	case a.A:
		return a.B, true
	case a.B:
		return a.A, true
	}
	return 0, false
}

// String formats the aspect as e.g. "Sun Square Moon (orb 0°12')".
func (a Aspect) String() string {
	return fmt.Sprintf("%s %s %s (orb %s)", a.A, a.Type, a.B, formatArc(a.Orb))
}

func formatArc(deg float64) string {
	total := int(math.Round(deg * 60))
	return fmt.Sprintf("%d°%02d'", total/60, total%60)
}

// CircularDiff returns the angular separation of two longitudes folded into
// [0, 180]. It is symmetric and handles the 0°/360° boundary: 350° and 10°
// are 20° apart, not 340°.
func CircularDiff(a, b float64) float64 {
	raw := math.Abs(math.Mod(a-b, 360))
	if raw > 180 {
		raw = 360 - raw
	}
	return raw
}

// Classify returns the aspect formed by a separation in [0, 180], if any
// exact angle lies within orb. When several qualify, the smallest orb wins
// and ties go to the lower angle.
func Classify(separation, orb float64) (AspectType, float64, bool) {
	var (
		best    AspectType
		bestOrb float64
		found   bool
	)
	for _, t := range aspectTypes {
		dev := math.Abs(separation - aspectAngles[t])
		if dev > orb {
			continue
		}
		if !found || dev < bestOrb {
			best, bestOrb, found = t, dev, true
		}
	}
	return best, bestOrb, found
}

// Aspects classifies every unordered pair of distinct bodies. Pairs are
// visited in input order (i < j) so identical input yields identical output.
func Aspects(lons []CelestialLongitude, orb float64) ([]Aspect, error) {
	if math.IsNaN(orb) || math.IsInf(orb, 0) || orb < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrb, orb)
	}

	norm := make([]float64, len(lons))
	seen := make(map[Body]bool, len(lons))
	for i, cl := range lons {
		if seen[cl.Body] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBody, cl.Body)
		}
		seen[cl.Body] = true

		l, err := NormalizeLongitude(cl.Longitude)
		if err != nil {
			return nil, fmt.Errorf("aspects for %s: %w", cl.Body, err)
		}
		norm[i] = l
	}

	var out []Aspect
	for i := 0; i < len(lons); i++ {
		for j := i + 1; j < len(lons); j++ {
			sep := CircularDiff(norm[i], norm[j])
			t, o, ok := Classify(sep, orb)
			if !ok {
				continue
			}
			out = append(out, Aspect{
				A:          lons[i].Body,
				B:          lons[j].Body,
				Type:       t,
				Orb:        o,
				Separation: sep,
			})
		}
	}
	return out, nil
}

// AspectsFor filters aspects to those involving b, preserving order.
func AspectsFor(aspects []Aspect, b Body) []Aspect {
	var out []Aspect
	for _, a := range aspects {
		if a.Involves(b) {
			out = append(out, a)
		}
	}
	return out
}
