package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/natal"
)

var tagColors = map[string]lipgloss.Color{
	"soft":    colorSoftLine,
	"hard":    colorHardLine,
	"neutral": "252",
}

// AspectsModel lists aspects at the interpretation orb, tightest first.
type AspectsModel struct {
	width  int
	height int
	offset int

	chart   *natal.Chart
	aspects []chart.Aspect // sorted by orb

	focus       chart.Body
	focused     bool
	onlyFocused bool
}

// NewAspectsModel creates an aspects view.
func NewAspectsModel() AspectsModel {
	return AspectsModel{}
}

// SetSize updates the viewport size.
func (m AspectsModel) SetSize(width, height int) AspectsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateChart swaps in a new chart.
func (m AspectsModel) UpdateChart(c *natal.Chart) AspectsModel {
	m.chart = c
	m.aspects = natal.SortByOrb(c.Aspects)
	m.offset = 0
	return m
}

// SetFocus highlights aspects involving b. ok false clears the focus.
func (m AspectsModel) SetFocus(b chart.Body, ok bool) AspectsModel {
	m.focus, m.focused = b, ok
	if !ok {
		m.onlyFocused = false
	}
	m.offset = 0
	return m
}

// Visible returns the aspects the view currently lists.
func (m AspectsModel) Visible() []chart.Aspect {
	if !m.onlyFocused || !m.focused {
		return m.aspects
	}
	return chart.AspectsFor(m.aspects, m.focus)
}

// Update handles messages.
func (m AspectsModel) Update(msg tea.Msg) (AspectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		n := len(m.Visible())
		switch msg.String() {
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < n-1 {
				m.offset++
			}
		case "home":
			m.offset = 0
		case "f":
			if m.focused {
				m.onlyFocused = !m.onlyFocused
				m.offset = 0
			}
		}
	}
	return m, nil
}

// View renders the aspect list.
func (m AspectsModel) View() string {
	if m.chart == nil {
		return "No chart yet"
	}

	list := m.Visible()
	title := fmt.Sprintf("%d aspects within %.0f°", len(list), m.chart.InterpretationOrb)
	if m.onlyFocused {
		title += fmt.Sprintf(" involving %s", m.focus)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")).Render(title))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-14s %-12s %8s %9s", "BODY", "ASPECT", "BODY", "ORB", "SEP")))
	b.WriteString("\n")

	if len(list) == 0 {
		b.WriteString(dimText("  No aspects"))
		return b.String()
	}

	visible := m.height - 3
	if visible < 1 {
		visible = len(list)
	}
	end := min(m.offset+visible, len(list))
	for _, a := range list[m.offset:end] {
		b.WriteString(m.formatRow(a))
		b.WriteString("\n")
	}
	if end < len(list) {
		b.WriteString(dimText(fmt.Sprintf("  … %d more", len(list)-end)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m AspectsModel) formatRow(a chart.Aspect) string {
	line := fmt.Sprintf("%-12s %c %-12s %-12s %8s %8.2f°",
		a.A, a.Type.Glyph(), a.Type, a.B, formatOrbShort(a.Orb), a.Separation)

	if m.focused && a.Involves(m.focus) {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused)).Bold(true).Render(line)
	}
	if m.focused {
		return dimText(line)
	}
	return lipgloss.NewStyle().Foreground(tagColors[a.Type.Tag()]).Render(line)
}
