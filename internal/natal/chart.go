package natal

import (
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-natal/internal/chart"
)

// Options tune how a chart is assembled.
type Options struct {
	WheelOrb          float64 // orb for aspect lines on the wheel
	InterpretationOrb float64 // orb for the textual aspect list
	IncludeNode       bool
	Layout            chart.LayoutConfig
}

// DefaultOptions returns the standard orbs and unit-circle layout.
func DefaultOptions() Options {
	return Options{
		WheelOrb:          chart.WheelOrb,
		InterpretationOrb: chart.InterpretationOrb,
		IncludeNode:       true,
		Layout:            chart.DefaultLayoutConfig(),
	}
}

// Chart is a computed natal chart.
type Chart struct {
	Request    Request
	Provider   string
	Longitudes []chart.CelestialLongitude
	Placements []chart.BodyPlacement

	Houses      []float64 // 12 cusps, nil when the Ascendant is unknown
	HousesExact bool      // false when the house system fell back to equal cusps

	InterpretationOrb float64
	WheelOrb          float64
	Aspects           []chart.Aspect // at the interpretation orb
	WheelAspects      []chart.Aspect // at the wheel orb
	Wheel             chart.Wheel

	// Warnings describe a partial chart: results are usable but incomplete.
	Warnings []string
	Computed time.Time
}

// Placement returns the placement of a body.
func (c *Chart) Placement(b chart.Body) (chart.SignPlacement, bool) {
	for _, bp := range c.Placements {
		if bp.Body == b {
			return bp.Placement, true
		}
	}
	return chart.SignPlacement{}, false
}

// HouseOf returns the house a body falls in, or 0 when houses are missing.
func (c *Chart) HouseOf(b chart.Body) int {
	p, ok := c.Placement(b)
	if !ok || len(c.Houses) != chart.HouseCount {
		return 0
	}
	h, err := chart.HouseOf(p.Longitude(), c.Houses)
	if err != nil {
		return 0
	}
	return h
}

// Partial reports whether the chart carries warnings.
func (c *Chart) Partial() bool {
	return len(c.Warnings) > 0
}

// BuildChart assembles a chart from longitudes already fetched. Malformed
// longitudes or orbs fail the build; missing angles and skipped aspect lines
// only add warnings.
func BuildChart(req Request, lons []chart.CelestialLongitude, opts Options) (*Chart, error) {
	if !opts.IncludeNode {
		lons = withoutBody(lons, chart.NorthNode)
	}

	c := &Chart{
		Request:           req,
		Longitudes:        lons,
		InterpretationOrb: opts.InterpretationOrb,
		WheelOrb:          opts.WheelOrb,
	}

	var err error
	if c.Placements, err = chart.PlaceAll(lons); err != nil {
		return nil, err
	}
	if c.Aspects, err = chart.Aspects(lons, opts.InterpretationOrb); err != nil {
		return nil, err
	}
	if c.WheelAspects, err = chart.Aspects(lons, opts.WheelOrb); err != nil {
		return nil, err
	}

	if asc, ok := c.Placement(chart.Ascendant); ok {
		c.Houses, c.HousesExact, err = chart.Cusps(req.HouseSystem, asc.Longitude())
		if err != nil {
			return nil, err
		}
		if !c.HousesExact {
			c.warn("%s houses are not computed; showing equal houses", req.HouseSystem)
		}
	} else {
		c.warn("ascendant unavailable; houses omitted")
	}

	c.Wheel, err = chart.Layout(c.Placements, c.WheelAspects, c.Houses, opts.Layout)
	switch {
	case err == nil:
	case errors.Is(err, chart.ErrInvalidHouseCount) && c.Houses == nil:
		// Already reported above.
	default:
		c.warn("house spokes omitted: %v", err)
	}
	if c.Wheel.Skipped > 0 {
		c.warn("%d aspect lines skipped for bodies without a position", c.Wheel.Skipped)
	}
	return c, nil
}

func (c *Chart) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func withoutBody(lons []chart.CelestialLongitude, b chart.Body) []chart.CelestialLongitude {
	out := make([]chart.CelestialLongitude, 0, len(lons))
	for _, l := range lons {
		if l.Body != b {
			out = append(out, l)
		}
	}
	return out
}
