package chart

import (
	"fmt"
	"math"
)

// Point is a 2-D coordinate in wheel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// rotationOffset turns the wheel so that 0° points to the top rather than
// to the right.
const rotationOffset = -90.0

// PointAt converts a chart angle and radius into a coordinate around center.
// Radius 0 is the center and 1 the rim of a unit wheel. Y grows downward as
// on a screen, so increasing angles move clockwise.
func PointAt(center Point, angleDeg, r float64) Point {
	rad := (angleDeg + rotationOffset) * math.Pi / 180
	return Point{
		X: center.X + math.Cos(rad)*r,
		Y: center.Y + math.Sin(rad)*r,
	}
}

// LayoutConfig places the wheel and its rings.
type LayoutConfig struct {
	Center      Point
	BodyRadius  float64 // radius bodies (and aspect line endpoints) sit on
	SpokeRadius float64 // outer end of each house spoke
	LabelRadius float64 // radius of house number labels
}

// DefaultLayoutConfig returns a unit wheel centered at the origin.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Center:      Point{},
		BodyRadius:  0.8,
		SpokeRadius: 0.95,
		LabelRadius: 0.6,
	}
}

// WheelPoint is the rendering position of one body.
type WheelPoint struct {
	Body      Body          `json:"body"`
	Angle     float64       `json:"angle"`
	Point     Point         `json:"point"`
	Placement SignPlacement `json:"placement"`
}

// HouseSpoke is a line from the center to the rim at a cusp angle, with the
// position of its house number label.
type HouseSpoke struct {
	House int     `json:"house"`
	Angle float64 `json:"angle"`
	From  Point   `json:"from"`
	To    Point   `json:"to"`
	Label Point   `json:"label"`
}

// AspectLine joins the wheel points of the two bodies in an aspect.
type AspectLine struct {
	Aspect Aspect `json:"aspect"`
	From   Point  `json:"from"`
	To     Point  `json:"to"`
}

// Tag returns the rendering category of the line's aspect.
func (l AspectLine) Tag() string {
	return l.Aspect.Type.Tag()
}

// Wheel is the complete 2-D layout of a chart.
type Wheel struct {
	Points []WheelPoint `json:"points"`
	Spokes []HouseSpoke `json:"spokes"`
	Lines  []AspectLine `json:"lines"`

	// Skipped counts aspects dropped because a body had no placement.
	Skipped int `json:"skipped"`
}

// Point returns the wheel point for b.
func (w Wheel) Point(b Body) (WheelPoint, bool) {
	for _, p := range w.Points {
		if p.Body == b {
			return p, true
		}
	}
	return WheelPoint{}, false
}

// Layout computes body points, house spokes, and aspect lines.
//
// Cusp problems only affect the spokes: when cusps does not hold exactly 12
// finite angles, the returned wheel still carries points and lines, has no
// spokes, and the error wraps ErrInvalidHouseCount or ErrMalformedLongitude.
// Aspects naming a body without a placement are skipped, not fatal.
func Layout(placements []BodyPlacement, aspects []Aspect, cusps []float64, cfg LayoutConfig) (Wheel, error) {
	w := Wheel{
		Points: make([]WheelPoint, 0, len(placements)),
	}

	byBody := make(map[Body]Point, len(placements))
	for _, bp := range placements {
		angle := bp.Placement.Longitude()
		pt := PointAt(cfg.Center, angle, cfg.BodyRadius)
		w.Points = append(w.Points, WheelPoint{
			Body:      bp.Body,
			Angle:     angle,
			Point:     pt,
			Placement: bp.Placement,
		})
		if _, dup := byBody[bp.Body]; !dup {
			byBody[bp.Body] = pt
		}
	}

	for _, a := range aspects {
		from, okA := byBody[a.A]
		to, okB := byBody[a.B]
		if !okA || !okB {
			w.Skipped++
			continue
		}
		w.Lines = append(w.Lines, AspectLine{Aspect: a, From: from, To: to})
	}

	spokes, err := houseSpokes(cusps, cfg)
	if err != nil {
		return w, err
	}
	w.Spokes = spokes
	return w, nil
}

// LayoutLongitudes is Layout for raw ephemeris longitudes.
func LayoutLongitudes(lons []CelestialLongitude, aspects []Aspect, cusps []float64, cfg LayoutConfig) (Wheel, error) {
	placements, err := PlaceAll(lons)
	if err != nil {
		return Wheel{}, err
	}
	return Layout(placements, aspects, cusps, cfg)
}

func houseSpokes(cusps []float64, cfg LayoutConfig) ([]HouseSpoke, error) {
	if len(cusps) != HouseCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHouseCount, len(cusps))
	}

	norm := make([]float64, HouseCount)
	for i, c := range cusps {
		n, err := NormalizeLongitude(c)
		if err != nil {
			return nil, fmt.Errorf("cusp %d: %w", i+1, err)
		}
		norm[i] = n
	}

	spokes := make([]HouseSpoke, HouseCount)
	for i, start := range norm {
		end := norm[(i+1)%HouseCount]
		span := math.Mod(end-start+360, 360)
		mid := start + span/2

		spokes[i] = HouseSpoke{
			House: i + 1,
			Angle: start,
			From:  cfg.Center,
			To:    PointAt(cfg.Center, start, cfg.SpokeRadius),
			Label: PointAt(cfg.Center, mid, cfg.LabelRadius),
		}
	}
	return spokes, nil
}
