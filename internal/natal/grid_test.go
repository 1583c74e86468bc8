package natal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-natal/internal/chart"
)

func TestGrid_Line(t *testing.T) {
	g := NewGrid(5, 3)
	g.Set(0, 0, 'A')
	g.Set(4, 2, 'B')
	g.Line(0, 0, 4, 2, '*')

	assert.Equal(t, 'A', g.At(0, 0), "endpoints untouched")
	assert.Equal(t, 'B', g.At(4, 2))
	assert.Equal(t, '*', g.At(2, 1))
	assert.Equal(t, ' ', g.At(-1, 0), "off grid reads as blank")
}

func TestGrid_LineKeepsForeground(t *testing.T) {
	g := NewGrid(5, 1)
	g.Set(2, 0, 'X')
	g.Line(0, 0, 4, 0, '-')
	assert.Equal(t, "-X-\n", strings.TrimLeft(g.String(), " "))
}

func TestGrid_TextClipped(t *testing.T) {
	g := NewGrid(4, 1)
	g.Text(2, 0, "abcdef")
	g.Text(0, 5, "ignored")
	assert.Equal(t, "  ab\n", g.String())
}

func TestFitProjection(t *testing.T) {
	// Wide grid: limited by height, vertical radius halved.
	p := FitProjection(80, 21)
	assert.Equal(t, 40, p.CX)
	assert.Equal(t, 10, p.CY)
	assert.Equal(t, 20.0, p.RX)
	assert.Equal(t, 10.0, p.RY)

	x, y := p.Cell(chart.PointAt(chart.Point{}, 0, 1))
	assert.Equal(t, 40, x)
	assert.Equal(t, 0, y, "0° at the top row")

	x, y = p.Cell(chart.PointAt(chart.Point{}, 90, 1))
	assert.Equal(t, 60, x)
	assert.Equal(t, 10, y)
}

func TestDrawWheel(t *testing.T) {
	c, err := BuildChart(sampleRequest(), sampleLongitudes(), DefaultOptions())
	require.NoError(t, err)

	g := NewGrid(49, 23)
	cells := DrawWheel(g, c.Wheel, FitProjection(49, 23), DrawOptions{Lines: true, Labels: LabelAbbrev})
	require.Len(t, cells, len(c.Wheel.Points))

	out := g.String()
	assert.Contains(t, out, string(RimRune))
	assert.Contains(t, out, "12")
	assert.Contains(t, out, string(HardLineRune))

	for _, bc := range cells {
		assert.True(t, g.In(bc.X, bc.Y), "%v off grid", bc.Body)
		assert.Equal(t, []rune(bc.Body.Abbrev())[0], g.At(bc.X, bc.Y), "%v label", bc.Body)
	}
}

func TestDrawWheel_FocusAndNoLines(t *testing.T) {
	c, err := BuildChart(sampleRequest(), sampleLongitudes(), DefaultOptions())
	require.NoError(t, err)

	g := NewGrid(49, 23)
	DrawWheel(g, c.Wheel, FitProjection(49, 23), DrawOptions{Lines: true, Focus: chart.Moon, Focused: true})
	assert.Contains(t, g.String(), string(FocusLineRune))

	g = NewGrid(49, 23)
	DrawWheel(g, c.Wheel, FitProjection(49, 23), DrawOptions{})
	out := g.String()
	assert.NotContains(t, out, string(HardLineRune))
	assert.NotContains(t, out, string(SoftLineRune))
	assert.Contains(t, out, string(chart.Sun.Glyph()))
}
