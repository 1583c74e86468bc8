package natal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/chart"
)

// sampleLongitudes puts the Ascendant at 15° Aries. Sun-Venus is 4.5° from
// a trine, inside the interpretation orb but outside the wheel orb.
func sampleLongitudes() []chart.CelestialLongitude {
	return []chart.CelestialLongitude{
		{Body: chart.Sun, Longitude: 0},
		{Body: chart.Moon, Longitude: 90},
		{Body: chart.Venus, Longitude: 124.5},
		{Body: chart.Mars, Longitude: 181},
		{Body: chart.Ascendant, Longitude: 15},
		{Body: chart.NorthNode, Longitude: 300},
	}
}

func TestBuildChart(t *testing.T) {
	c, err := BuildChart(sampleRequest(), sampleLongitudes(), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, c.Placements, 6)
	assert.True(t, c.HousesExact)
	assert.Empty(t, c.Warnings)
	assert.False(t, c.Partial())

	require.Len(t, c.Houses, chart.HouseCount)
	assert.InDelta(t, 15, c.Houses[0], 1e-9)
	assert.Len(t, c.Wheel.Spokes, chart.HouseCount)
	assert.Len(t, c.Wheel.Points, 6)

	// Sun at 0° sits in the 12th house when the Ascendant is at 15°.
	assert.Equal(t, 12, c.HouseOf(chart.Sun))
	assert.Equal(t, 1, c.HouseOf(chart.Ascendant))
	assert.Equal(t, 0, c.HouseOf(chart.Pluto))

	p, ok := c.Placement(chart.Venus)
	require.True(t, ok)
	assert.Equal(t, chart.Leo, p.Sign)
}

func TestBuildChart_OrbsDiffer(t *testing.T) {
	c, err := BuildChart(sampleRequest(), sampleLongitudes(), DefaultOptions())
	require.NoError(t, err)

	// Sun-Venus is 4.5° off a trine: listed for interpretation, not drawn.
	hasSunVenus := func(as []chart.Aspect) bool {
		for _, a := range as {
			if a.Involves(chart.Sun) && a.Involves(chart.Venus) {
				return true
			}
		}
		return false
	}
	assert.True(t, hasSunVenus(c.Aspects))
	assert.False(t, hasSunVenus(c.WheelAspects))
	assert.Len(t, c.Wheel.Lines, len(c.WheelAspects))
	assert.Equal(t, chart.InterpretationOrb, c.InterpretationOrb)
	assert.Equal(t, chart.WheelOrb, c.WheelOrb)
}

func TestBuildChart_WithoutNode(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeNode = false
	c, err := BuildChart(sampleRequest(), sampleLongitudes(), opts)
	require.NoError(t, err)

	_, ok := c.Placement(chart.NorthNode)
	assert.False(t, ok)
	for _, a := range c.Aspects {
		assert.False(t, a.Involves(chart.NorthNode))
	}
}

func TestBuildChart_PlaceholderHouses(t *testing.T) {
	req := sampleRequest()
	req.HouseSystem = chart.HousePlacidus
	c, err := BuildChart(req, sampleLongitudes(), DefaultOptions())
	require.NoError(t, err)

	assert.False(t, c.HousesExact)
	assert.Len(t, c.Houses, chart.HouseCount)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], "placidus")
}

func TestBuildChart_NoAscendant(t *testing.T) {
	lons := sampleLongitudes()[:4]
	c, err := BuildChart(sampleRequest(), lons, DefaultOptions())
	require.NoError(t, err)

	assert.Nil(t, c.Houses)
	assert.Empty(t, c.Wheel.Spokes)
	assert.NotEmpty(t, c.Wheel.Lines)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], "ascendant")
	assert.Equal(t, 0, c.HouseOf(chart.Sun))
}

func TestBuildChart_Errors(t *testing.T) {
	lons := sampleLongitudes()
	lons[2].Longitude = math.Inf(1)
	_, err := BuildChart(sampleRequest(), lons, DefaultOptions())
	assert.ErrorIs(t, err, chart.ErrMalformedLongitude)

	opts := DefaultOptions()
	opts.WheelOrb = -1
	_, err = BuildChart(sampleRequest(), sampleLongitudes(), opts)
	assert.ErrorIs(t, err, chart.ErrInvalidOrb)

	dup := append(sampleLongitudes(), chart.CelestialLongitude{Body: chart.Sun, Longitude: 10})
	_, err = BuildChart(sampleRequest(), dup, DefaultOptions())
	assert.ErrorIs(t, err, chart.ErrDuplicateBody)
}
