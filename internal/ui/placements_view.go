package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/natal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// PlacementsModel lists every body with its sign, house and element.
type PlacementsModel struct {
	width  int
	height int
	cursor int
	chart  *natal.Chart
}

// NewPlacementsModel creates a placements view.
func NewPlacementsModel() PlacementsModel {
	return PlacementsModel{}
}

// SetSize updates the viewport size.
func (m PlacementsModel) SetSize(width, height int) PlacementsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateChart swaps in a new chart.
func (m PlacementsModel) UpdateChart(c *natal.Chart) PlacementsModel {
	m.chart = c
	if m.cursor >= m.rowCount() {
		m.cursor = max(m.rowCount()-1, 0)
	}
	return m
}

// Cursor returns the selected row.
func (m PlacementsModel) Cursor() int {
	return m.cursor
}

func (m PlacementsModel) rowCount() int {
	if m.chart == nil {
		return 0
	}
	return len(m.chart.Placements)
}

// Update handles messages.
func (m PlacementsModel) Update(msg tea.Msg) (PlacementsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.rowCount()-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(m.rowCount()-1, 0)
		}
	}
	return m, nil
}

// View renders the placements table, house cusps and warnings.
func (m PlacementsModel) View() string {
	if m.chart == nil {
		return "No chart yet"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %-16s %8s %5s  %-6s %-8s",
		"BODY", "POSITION", "LON", "HOUSE", "ELEM", "MODE")))
	b.WriteString("\n")

	start, end := m.window()
	for i := start; i < end; i++ {
		bp := m.chart.Placements[i]
		line := m.formatRow(bp)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if end < m.rowCount() {
		b.WriteString(dimText(fmt.Sprintf("  … %d more", m.rowCount()-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderCusps())

	for _, w := range m.chart.Warnings {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("⚠ " + w))
	}
	return b.String()
}

// window returns the visible row range, keeping the cursor on screen.
func (m PlacementsModel) window() (int, int) {
	n := m.rowCount()
	visible := m.height - 8
	if visible < 3 || visible >= n {
		return 0, n
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	return start, start + visible
}

func (m PlacementsModel) formatRow(bp chart.BodyPlacement) string {
	house := "-"
	if h := m.chart.HouseOf(bp.Body); h > 0 {
		house = fmt.Sprintf("%d", h)
	}
	name := fmt.Sprintf("%c %s", bp.Body.Glyph(), bp.Body)
	return fmt.Sprintf("%-14s %-16s %7.2f° %5s  %-6s %-8s",
		name, bp.Placement, bp.Placement.Longitude(), house,
		bp.Placement.Sign.Element(), bp.Placement.Sign.Modality())
}

func (m PlacementsModel) renderCusps() string {
	if len(m.chart.Houses) == 0 {
		return dimText("Houses unavailable")
	}

	title := m.chart.Request.HouseSystem.String() + " cusps"
	if !m.chart.HousesExact {
		title += " (equal fallback)"
	}

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")).Render(title))
	for i := 0; i < len(m.chart.Houses); i += 4 {
		var cols []string
		for j := i; j < i+4 && j < len(m.chart.Houses); j++ {
			p, err := chart.Place(m.chart.Houses[j])
			if err != nil {
				continue
			}
			cols = append(cols, fmt.Sprintf("%2d %-14s", j+1, p))
		}
		rows = append(rows, "  "+strings.Join(cols, "  "))
	}
	return strings.Join(rows, "\n")
}

func dimText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Render(s)
}
