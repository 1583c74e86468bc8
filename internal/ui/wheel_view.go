package ui

import (
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/natal"
)

const (
	legendWidth = 30

	colorRim       = "60"  // muted purple
	colorSpoke     = "239" // dark gray
	colorHouseNum  = "244"
	colorSoftLine  = "73"  // teal
	colorHardLine  = "167" // brick red
	colorFocusLine = "229" // bright gold
	colorFocused   = "229"
	colorEmpty     = "236"
)

var elementColors = map[chart.Element]lipgloss.Color{
	chart.Fire:  "208",
	chart.Earth: "107",
	chart.Air:   "153",
	chart.Water: "69",
}

// WheelModel renders the chart wheel with a legend.
type WheelModel struct {
	width  int
	height int

	chart  *natal.Chart
	bodies []chart.Body // bodies on the wheel, in layout order

	focusIdx int // -1 when nothing is focused
	lines    bool
	labels   natal.LabelMode
}

// NewWheelModel creates a wheel view with aspect lines and glyph labels.
func NewWheelModel() WheelModel {
	return WheelModel{focusIdx: -1, lines: true, labels: natal.LabelGlyph}
}

// SetSize updates the viewport size.
func (m WheelModel) SetSize(width, height int) WheelModel {
	m.width = width
	m.height = height
	return m
}

// UpdateChart swaps in a new chart, keeping the focused body if it is
// still on the wheel.
func (m WheelModel) UpdateChart(c *natal.Chart) WheelModel {
	prev, hadFocus := m.Focus()

	m.chart = c
	m.bodies = make([]chart.Body, 0, len(c.Wheel.Points))
	for _, p := range c.Wheel.Points {
		m.bodies = append(m.bodies, p.Body)
	}

	m.focusIdx = -1
	if hadFocus {
		for i, b := range m.bodies {
			if b == prev {
				m.focusIdx = i
			}
		}
	}
	return m
}

// Focus returns the focused body.
func (m WheelModel) Focus() (chart.Body, bool) {
	if m.focusIdx < 0 || m.focusIdx >= len(m.bodies) {
		return 0, false
	}
	return m.bodies[m.focusIdx], true
}

// Update handles messages.
func (m WheelModel) Update(msg tea.Msg) (WheelModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "down", "j":
			m = m.focusNext()
		case "up", "k":
			m = m.focusPrev()
		case "esc":
			m.focusIdx = -1
		case "a":
			m.lines = !m.lines
		case "l":
			m.labels = (m.labels + 1) % 3
		}
	}
	return m, nil
}

func (m WheelModel) focusNext() WheelModel {
	if len(m.bodies) == 0 {
		return m
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.bodies)
	return m
}

func (m WheelModel) focusPrev() WheelModel {
	if len(m.bodies) == 0 {
		return m
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.bodies) - 1
	}
	return m
}

// View renders the wheel view.
func (m WheelModel) View() string {
	if m.chart == nil {
		return "No chart yet"
	}
	if m.width < 40 || m.height < 12 {
		return "Wheel view requires larger terminal"
	}

	canvasW := m.width - legendWidth - 2
	canvasH := m.height - 3
	// Keep the canvas roughly round: two columns per row.
	if canvasW > 2*canvasH+1 {
		canvasW = 2*canvasH + 1
	}

	canvas := m.renderCanvas(canvasW, canvasH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, "  ", m.renderLegend())

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m WheelModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d0c8ff"))

	houses := m.chart.Request.HouseSystem.String() + " houses"
	if m.chart.Houses == nil {
		houses = "no houses"
	} else if !m.chart.HousesExact {
		houses += " (equal)"
	}

	lines := dimStyle.Render("Lines: off")
	if m.lines {
		lines = accentStyle.Render(fmt.Sprintf("Lines: %d within %.0f°", len(m.chart.Wheel.Lines), m.chart.WheelOrb))
	}

	labels := [...]string{"glyph", "abbrev", "name"}[m.labels]
	return fmt.Sprintf("%s | %s | %s | %s",
		titleStyle.Render("Wheel"), dimStyle.Render(houses), lines, dimStyle.Render("Labels: "+labels))
}

func (m WheelModel) drawOptions() natal.DrawOptions {
	opts := natal.DrawOptions{Lines: m.lines, Labels: m.labels}
	if b, ok := m.Focus(); ok {
		opts.Focus, opts.Focused = b, true
	}
	return opts
}

func (m WheelModel) renderCanvas(width, height int) string {
	g := natal.NewGrid(width, height)
	cells := natal.DrawWheel(g, m.chart.Wheel, natal.FitProjection(width, height), m.drawOptions())

	rows := g.Rows()
	colors := make([][]lipgloss.Color, height)
	for y := range colors {
		colors[y] = make([]lipgloss.Color, width)
		for x := range colors[y] {
			colors[y][x] = runeColor(rows[y][x])
		}
	}

	focus, focused := m.Focus()
	for _, bc := range cells {
		color := lipgloss.Color(colorFocused)
		if !focused || bc.Body != focus {
			color = m.bodyColor(bc.Body)
		}
		n := len([]rune(natal.BodyLabel(bc.Body, m.labels)))
		for x := bc.X; x < bc.X+n; x++ {
			if g.In(x, bc.Y) {
				colors[bc.Y][x] = color
			}
		}
	}

	return renderRuns(rows, colors)
}

func (m WheelModel) bodyColor(b chart.Body) lipgloss.Color {
	if p, ok := m.chart.Placement(b); ok {
		if c, ok := elementColors[p.Sign.Element()]; ok {
			return c
		}
	}
	return "252"
}

// runeColor picks the foreground for a cell drawn by natal.DrawWheel.
func runeColor(r rune) lipgloss.Color {
	switch {
	case r == natal.RimRune:
		return colorRim
	case r == natal.SpokeRune:
		return colorSpoke
	case r == natal.SoftLineRune:
		return colorSoftLine
	case r == natal.HardLineRune:
		return colorHardLine
	case r == natal.FocusLineRune:
		return colorFocusLine
	case unicode.IsDigit(r):
		return colorHouseNum
	default:
		return colorEmpty
	}
}

// renderRuns styles each row in runs of equal color.
func renderRuns(rows [][]rune, colors [][]lipgloss.Color) string {
	var b strings.Builder
	for y, row := range rows {
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && colors[y][x] == colors[y][start] {
				continue
			}
			style := lipgloss.NewStyle().Foreground(colors[y][start])
			b.WriteString(style.Render(string(row[start:x])))
			start = x
		}
		if y < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m WheelModel) renderLegend() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused)).Bold(true)

	focus, focused := m.Focus()
	var lines []string
	for _, p := range m.chart.Wheel.Points {
		house := "  "
		if h := m.chart.HouseOf(p.Body); h > 0 {
			house = fmt.Sprintf("%2d", h)
		}
		text := fmt.Sprintf("%c %-3s %-16s %s", p.Body.Glyph(), p.Body.Abbrev(), p.Placement, house)

		if focused && p.Body == focus {
			lines = append(lines, focusStyle.Render("▶ "+text))
			continue
		}
		style := lipgloss.NewStyle().Foreground(m.bodyColor(p.Body))
		lines = append(lines, "  "+style.Render(text))
	}

	lines = append(lines, "")
	lines = append(lines,
		lipgloss.NewStyle().Foreground(lipgloss.Color(colorHardLine)).Render(string(natal.HardLineRune)+" hard")+"  "+
			lipgloss.NewStyle().Foreground(lipgloss.Color(colorSoftLine)).Render(string(natal.SoftLineRune)+" soft"))
	if m.chart.Wheel.Skipped > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%d lines skipped", m.chart.Wheel.Skipped)))
	}
	return strings.Join(lines, "\n")
}

// renderStatus lists the focused body's aspects at the interpretation orb.
func (m WheelModel) renderStatus() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	focus, ok := m.Focus()
	if !ok {
		return dimStyle.Render(fmt.Sprintf("%d aspects within %.0f° · j/k to focus a body",
			len(m.chart.Aspects), m.chart.InterpretationOrb))
	}

	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused))
	p, _ := m.chart.Placement(focus)
	head := fmt.Sprintf(">>> %c %s %s", focus.Glyph(), focus, p)
	if h := m.chart.HouseOf(focus); h > 0 {
		head += fmt.Sprintf(", house %d", h)
	}

	var parts []string
	for _, a := range natal.SortByOrb(m.chart.Aspects) {
		if !a.Involves(focus) {
			continue
		}
		other, _ := a.Other(focus)
		parts = append(parts, fmt.Sprintf("%c %s %s", a.Type.Glyph(), other, formatOrbShort(a.Orb)))
	}
	if len(parts) == 0 {
		return accentStyle.Render(head) + dimStyle.Render(" · no aspects")
	}
	return accentStyle.Render(head) + "\n" + dimStyle.Render("    "+strings.Join(parts, " · "))
}

func formatOrbShort(orb float64) string {
	deg := int(orb)
	return fmt.Sprintf("%d°%02d'", deg, int((orb-float64(deg))*60))
}
