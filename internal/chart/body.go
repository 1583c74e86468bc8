// Package chart provides the natal chart geometry: sign placement of ecliptic
// longitudes, pairwise aspect classification, house cusps, and the 2-D wheel
// layout used for rendering.
//
// Every function in this package is pure. Results are freshly allocated on
// each call, so the package is safe for concurrent use without locking.
package chart

import (
	"fmt"
	"strings"
)

// Body identifies a chart point fed in from the ephemeris.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	Ascendant
	NorthNode
)

var bodyNames = [...]string{
	Sun:       "Sun",
	Moon:      "Moon",
	Mercury:   "Mercury",
	Venus:     "Venus",
	Mars:      "Mars",
	Jupiter:   "Jupiter",
	Saturn:    "Saturn",
	Uranus:    "Uranus",
	Neptune:   "Neptune",
	Pluto:     "Pluto",
	Ascendant: "Ascendant",
	NorthNode: "North Node",
}

var bodyGlyphs = [...]rune{
	Sun:       '☉',
	Moon:      '☽',
	Mercury:   '☿',
	Venus:     '♀',
	Mars:      '♂',
	Jupiter:   '♃',
	Saturn:    '♄',
	Uranus:    '♅',
	Neptune:   '♆',
	Pluto:     '♇',
	Ascendant: 'A',
	NorthNode: '☊',
}

// String returns the display name of the body.
func (b Body) String() string {
	if !b.Valid() {
		return "Unknown"
	}
	return bodyNames[b]
}

// Glyph returns the astrological symbol for the body.
func (b Body) Glyph() rune {
	if !b.Valid() {
		return '?'
	}
	return bodyGlyphs[b]
}

// Abbrev returns a short two or three letter code for compact tables.
func (b Body) Abbrev() string {
	switch b {
	case Ascendant:
		return "ASC"
	case NorthNode:
		return "NN"
	}
	name := b.String()
	if len(name) < 2 {
		return name
	}
	return name[:2]
}

// Valid reports whether b is one of the declared bodies.
func (b Body) Valid() bool {
	return b >= Sun && b <= NorthNode
}

// Planet reports whether the body is a physical body rather than a
// calculated point (Ascendant, lunar node).
func (b Body) Planet() bool {
	return b >= Sun && b <= Pluto
}

// AllBodies returns every body in declaration order.
func AllBodies() []Body {
	out := make([]Body, 0, len(bodyNames))
	for b := Sun; b <= NorthNode; b++ {
		out = append(out, b)
	}
	return out
}

// ParseBody looks up a body by name, abbreviation, or glyph (case-insensitive).
func ParseBody(s string) (Body, bool) {
	key := normalizeKey(s)
	if key == "" {
		return 0, false
	}
	for b := Sun; b <= NorthNode; b++ {
		if key == normalizeKey(b.String()) || key == normalizeKey(b.Abbrev()) || s == string(b.Glyph()) {
			return b, true
		}
	}
	switch key {
	case "asc", "rising":
		return Ascendant, true
	case "node", "truenode", "meannode", "rahu":
		return NorthNode, true
	}
	return 0, false
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// CelestialLongitude is one ephemeris sample: a body and its absolute
// ecliptic longitude in degrees. Latitude and speed are not carried.
type CelestialLongitude struct {
	Body      Body    `json:"body"`
	Longitude float64 `json:"longitude"`
}

// MarshalText encodes the body by name.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("chart: invalid body %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText decodes a body name accepted by ParseBody.
func (b *Body) UnmarshalText(text []byte) error {
	parsed, ok := ParseBody(string(text))
	if !ok {
		return fmt.Errorf("chart: unknown body %q", string(text))
	}
	*b = parsed
	return nil
}
