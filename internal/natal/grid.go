package natal

import (
	"math"
	"strconv"
	"strings"

	"github.com/litescript/ls-natal/internal/chart"
)

// Runes placed by DrawWheel. Renderers style cells by these.
const (
	RimRune       = '·'
	SpokeRune     = '+'
	SoftLineRune  = '∙'
	HardLineRune  = '×'
	FocusLineRune = '*'
)

// Grid is a character canvas.
type Grid struct {
	W, H  int
	cells [][]rune
}

// NewGrid creates a blank w×h grid.
func NewGrid(w, h int) *Grid {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	cells := make([][]rune, h)
	for y := range cells {
		cells[y] = make([]rune, w)
		for x := range cells[y] {
			cells[y][x] = ' '
		}
	}
	return &Grid{W: w, H: h, cells: cells}
}

// In reports whether (x, y) is on the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// At returns the rune at (x, y), or a space off the grid.
func (g *Grid) At(x, y int) rune {
	if !g.In(x, y) {
		return ' '
	}
	return g.cells[y][x]
}

// Set writes r at (x, y) if it is on the grid.
func (g *Grid) Set(x, y int, r rune) {
	if g.In(x, y) {
		g.cells[y][x] = r
	}
}

// setBackground writes r only over empty or rim cells.
func (g *Grid) setBackground(x, y int, r rune) {
	if c := g.At(x, y); g.In(x, y) && (c == ' ' || c == RimRune) {
		g.cells[y][x] = r
	}
}

// Text writes s starting at (x, y), clipped to the grid.
func (g *Grid) Text(x, y int, s string) {
	for _, r := range s {
		g.Set(x, y, r)
		x++
	}
}

// Line draws a Bresenham line between two cells over background only.
// The endpoints are left untouched.
func (g *Grid) Line(x0, y0, x1, y1 int, r rune) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	x, y := x0, y0
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) {
			g.setBackground(x, y, r)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Rows returns the grid contents. The slices must not be modified.
func (g *Grid) Rows() [][]rune {
	return g.cells
}

// String renders the grid with trailing spaces trimmed.
func (g *Grid) String() string {
	var b strings.Builder
	for _, row := range g.cells {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Projection maps wheel coordinates onto grid cells. Terminal cells are
// about twice as tall as wide, so the vertical radius is halved.
type Projection struct {
	CX, CY int
	RX, RY float64
}

// FitProjection sizes a projection so a unit circle fills the grid.
func FitProjection(w, h int) Projection {
	rx := float64(w-1) / 2
	if lim := float64(h - 1); lim < rx {
		rx = lim
	}
	return Projection{CX: w / 2, CY: h / 2, RX: rx, RY: rx * 0.5}
}

// Cell returns the grid cell for a wheel point.
func (p Projection) Cell(pt chart.Point) (int, int) {
	return p.CX + int(math.Round(pt.X*p.RX)), p.CY + int(math.Round(pt.Y*p.RY))
}

// LabelMode selects how bodies are written on the wheel.
type LabelMode int

const (
	LabelGlyph  LabelMode = iota // single astrological glyph
	LabelAbbrev                  // two-letter ASCII abbreviation
	LabelName                    // glyph followed by the name
)

// DrawOptions controls DrawWheel.
type DrawOptions struct {
	Lines   bool       // draw aspect lines
	Labels  LabelMode  // body label style
	Focus   chart.Body // lines touching this body use FocusLineRune
	Focused bool       // whether Focus is set
}

// BodyCell records where a body label was written.
type BodyCell struct {
	Body chart.Body
	X, Y int
}

// DrawWheel renders a wheel: rim, house spokes and numbers, aspect lines,
// then body labels on top. It returns where each body landed.
func DrawWheel(g *Grid, w chart.Wheel, proj Projection, opts DrawOptions) []BodyCell {
	drawRim(g, proj)

	for _, s := range w.Spokes {
		inner := chart.PointAt(chart.Point{}, s.Angle, 0.9)
		x0, y0 := proj.Cell(inner)
		x1, y1 := proj.Cell(s.To)
		g.Line(x0, y0, x1, y1, SpokeRune)
		g.setBackground(x1, y1, SpokeRune)

		num := strconv.Itoa(s.House)
		lx, ly := proj.Cell(s.Label)
		g.Text(lx-len(num)/2, ly, num)
	}

	if opts.Lines {
		for _, l := range w.Lines {
			r := lineRune(l, opts)
			if r == 0 {
				continue
			}
			x0, y0 := proj.Cell(l.From)
			x1, y1 := proj.Cell(l.To)
			g.Line(x0, y0, x1, y1, r)
		}
	}

	cells := make([]BodyCell, 0, len(w.Points))
	for _, p := range w.Points {
		x, y := proj.Cell(p.Point)
		label := BodyLabel(p.Body, opts.Labels)
		// Keep labels inside the rim on the right half.
		if x > proj.CX {
			x -= len([]rune(label)) - 1
		}
		g.Text(x, y, label)
		cells = append(cells, BodyCell{Body: p.Body, X: x, Y: y})
	}
	return cells
}

func drawRim(g *Grid, proj Projection) {
	steps := int(2 * math.Pi * proj.RX)
	if steps < 8 {
		steps = 8
	}
	if steps > 720 {
		steps = 720
	}
	for i := 0; i < steps; i++ {
		angle := 360 * float64(i) / float64(steps)
		x, y := proj.Cell(chart.PointAt(chart.Point{}, angle, 1))
		g.setBackground(x, y, RimRune)
	}
}

func lineRune(l chart.AspectLine, opts DrawOptions) rune {
	if opts.Focused && l.Aspect.Involves(opts.Focus) {
		return FocusLineRune
	}
	switch l.Tag() {
	case "hard":
		return HardLineRune
	case "soft":
		return SoftLineRune
	default:
		return 0 // conjunctions sit on top of each other
	}
}

// BodyLabel returns the text DrawWheel writes for a body.
func BodyLabel(b chart.Body, mode LabelMode) string {
	switch mode {
	case LabelAbbrev:
		return b.Abbrev()
	case LabelName:
		return string(b.Glyph()) + " " + b.String()
	default:
		return string(b.Glyph())
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
