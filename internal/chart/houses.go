package chart

import (
	"fmt"
	"math"
	"strings"
)

// HouseCount is the number of houses and cusps in a chart.
const HouseCount = 12

// HouseSystem selects how cusps are derived from the Ascendant.
type HouseSystem int

const (
	HouseEqual HouseSystem = iota
	HouseWholeSign
	HousePlacidus
	HouseKoch
)

// String returns the house system name.
func (h HouseSystem) String() string {
	switch h {
	case HouseEqual:
		return "equal"
	case HouseWholeSign:
		return "whole"
	case HousePlacidus:
		return "placidus"
	case HouseKoch:
		return "koch"
	default:
		return "unknown"
	}
}

// MarshalText encodes the house system by name.
func (h HouseSystem) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ParseHouseSystem parses a house system name. Unknown names fall back to
// equal houses and report ok=false.
func ParseHouseSystem(s string) (HouseSystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal", "e", "":
		return HouseEqual, true
	case "whole", "whole-sign", "wholesign", "w":
		return HouseWholeSign, true
	case "placidus", "p":
		return HousePlacidus, true
	case "koch", "k":
		return HouseKoch, true
	default:
		return HouseEqual, false
	}
}

// EvenCusps returns twelve cusps spaced 30° apart starting at asc.
func EvenCusps(asc float64) ([]float64, error) {
	a, err := NormalizeLongitude(asc)
	if err != nil {
		return nil, err
	}
	cusps := make([]float64, HouseCount)
	for i := range cusps {
		c := a + float64(i)*SignWidth
		if c >= 360 {
			c -= 360
		}
		cusps[i] = c
	}
	return cusps, nil
}

// WholeSignCusps returns cusps at the start of each sign, the first house
// being the Ascendant's sign.
func WholeSignCusps(asc float64) ([]float64, error) {
	p, err := Place(asc)
	if err != nil {
		return nil, err
	}
	return EvenCusps(p.Sign.StartLongitude())
}

// Cusps derives the cusp list for a house system. Placidus and Koch are not
// computed; they fall back to equal cusps and report exact=false.
func Cusps(system HouseSystem, asc float64) (cusps []float64, exact bool, err error) {
	switch system {
	case HouseWholeSign:
		cusps, err = WholeSignCusps(asc)
		return cusps, true, err
	case HouseEqual:
		cusps, err = EvenCusps(asc)
		return cusps, true, err
	default:
		cusps, err = EvenCusps(asc)
		return cusps, false, err
	}
}

// HouseOf returns the 1-based house containing lon. Cusps are taken in
// order; each house runs from its cusp up to the next one, wrapping at 360°.
func HouseOf(lon float64, cusps []float64) (int, error) {
	if len(cusps) != HouseCount {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidHouseCount, len(cusps))
	}
	l, err := NormalizeLongitude(lon)
	if err != nil {
		return 0, err
	}
	for i := 0; i < HouseCount; i++ {
		start, err := NormalizeLongitude(cusps[i])
		if err != nil {
			return 0, fmt.Errorf("cusp %d: %w", i+1, err)
		}
		end, err := NormalizeLongitude(cusps[(i+1)%HouseCount])
		if err != nil {
			return 0, fmt.Errorf("cusp %d: %w", (i+1)%HouseCount+1, err)
		}
		if arcContains(start, end, l) {
			return i + 1, nil
		}
	}
	// Degenerate cusp lists (all equal) cover nothing; attribute to house 1.
	return 1, nil
}

// arcContains reports whether x lies on the forward arc [start, end).
func arcContains(start, end, x float64) bool {
	span := math.Mod(end-start+360, 360)
	off := math.Mod(x-start+360, 360)
	return off < span
}
