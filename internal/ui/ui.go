// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-natal/internal/natal"
	"github.com/litescript/ls-natal/internal/state"
	"github.com/litescript/ls-natal/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewWheel ViewMode = iota
	ViewPlacements
	ViewAspects
	viewCount
)

// DefaultComputeTimeout bounds one chart computation.
const DefaultComputeTimeout = 45 * time.Second

// Msg types for Bubble Tea
type (
	// AnimTickMsg drives the spinner while a chart is computing.
	AnimTickMsg time.Time

	// ChartMsg carries the result of a computation.
	ChartMsg struct {
		Chart    *natal.Chart
		Duration time.Duration
		Err      error
	}
)

// Computer produces charts. natal.Service satisfies it.
type Computer interface {
	Compute(ctx context.Context, req natal.Request) (*natal.Chart, error)
	Provider() string
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	svc     Computer
	state   *state.Manager
	req     natal.Request
	timeout time.Duration

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	computing bool
	statusMsg string
	animTick  int

	// Sub-models
	wheel      WheelModel
	placements PlacementsModel
	aspects    AspectsModel

	snapshot state.Snapshot
}

// New creates a new root UI model. The first computation starts in Init.
func New(svc Computer, stateMgr *state.Manager, req natal.Request) Model {
	return Model{
		svc:        svc,
		state:      stateMgr,
		req:        req,
		timeout:    DefaultComputeTimeout,
		viewMode:   ViewWheel,
		computing:  true,
		wheel:      NewWheelModel(),
		placements: NewPlacementsModel(),
		aspects:    NewAspectsModel(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.computeCmd(), animTickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewWheel
		case "2":
			m.viewMode = ViewPlacements
		case "3":
			m.switchTo(ViewAspects)
		case "tab":
			m.switchTo((m.viewMode + 1) % viewCount)
		case "shift+tab":
			m.switchTo((m.viewMode + viewCount - 1) % viewCount)

		case "r":
			cmds = append(cmds, m.recompute())
		case "[":
			cmds = append(cmds, m.shiftTime(-time.Hour))
		case "]":
			cmds = append(cmds, m.shiftTime(time.Hour))
		case "{":
			cmds = append(cmds, m.shiftTime(-24*time.Hour))
		case "}":
			cmds = append(cmds, m.shiftTime(24*time.Hour))

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - m.headerHeight() - 2
		m.wheel = m.wheel.SetSize(msg.Width, contentHeight)
		m.placements = m.placements.SetSize(msg.Width, contentHeight)
		m.aspects = m.aspects.SetSize(msg.Width, contentHeight)

	case AnimTickMsg:
		if m.computing {
			m.animTick++
			cmds = append(cmds, animTickCmd())
		}

	case ChartMsg:
		m.computing = false
		m.state.Update(msg.Chart, msg.Duration, msg.Err)
		m.snapshot = m.state.Snapshot()
		if msg.Chart != nil {
			m.req = msg.Chart.Request
			m.wheel = m.wheel.UpdateChart(msg.Chart)
			m.placements = m.placements.UpdateChart(msg.Chart)
			m.aspects = m.aspects.UpdateChart(msg.Chart)
			m.statusMsg = ""
		}

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) switchTo(v ViewMode) {
	if v == ViewAspects {
		m.aspects = m.aspects.SetFocus(m.wheel.Focus())
	}
	m.viewMode = v
}

func (m *Model) recompute() tea.Cmd {
	if m.computing {
		return nil
	}
	m.computing = true
	m.statusMsg = "Computing " + m.req.Time.UTC().Format("2006-01-02 15:04") + "..."
	return tea.Batch(m.computeCmd(), animTickCmd())
}

func (m *Model) shiftTime(d time.Duration) tea.Cmd {
	if m.computing {
		return nil
	}
	m.req.Time = m.req.Time.Add(d)
	return m.recompute()
}

func (m Model) computeCmd() tea.Cmd {
	svc, req, timeout := m.svc, m.req, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		c, err := svc.Compute(ctx, req)
		return ChartMsg{Chart: c, Duration: time.Since(start), Err: err}
	}
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewWheel:
		m.wheel, cmd = m.wheel.Update(msg)
	case ViewPlacements:
		m.placements, cmd = m.placements.Update(msg)
	case ViewAspects:
		m.aspects, cmd = m.aspects.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewWheel:
		content = m.wheel.View()
	case ViewPlacements:
		content = m.placements.View()
	case ViewAspects:
		content = m.aspects.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

// headerHeight is the number of lines renderHeader produces.
func (m Model) headerHeight() int {
	if m.showLogo() {
		return len(logo) + 5
	}
	return 2
}

func (m Model) showLogo() bool {
	return m.height >= 40
}

func (m Model) renderHeader() string {
	if !m.showLogo() {
		return "\n" + m.renderTabs() + "\n"
	}
	return m.renderLogo() + m.renderTabs() + "\n"
}

var logo = []string{
	`  ██╗     ███████╗      ███╗   ██╗ █████╗ ████████╗ █████╗ ██╗`,
	`  ██║     ██╔════╝      ████╗  ██║██╔══██╗╚══██╔══╝██╔══██╗██║`,
	`  ██║     ███████╗█████╗██╔██╗ ██║███████║   ██║   ███████║██║`,
	`  ██║     ╚════██║╚════╝██║╚██╗██║██╔══██║   ██║   ██╔══██║██║`,
	`  ███████╗███████║      ██║ ╚████║██║  ██║   ██║   ██║  ██║███████╗`,
	`  ╚══════╝╚══════╝      ╚═╝  ╚═══╝╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚══════╝`,
}

func (m Model) renderLogo() string {
	var b strings.Builder
	b.WriteString("\n")

	// Render each line with a horizontal truecolor gradient
	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  Natal Chart · Signs, Aspects and Houses"))
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("  litescript.net | v%s", version.Version)))
	b.WriteString("\n\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient:
// deep blue through violet to gold, dimming toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.5 {
		// Blue to Violet
		t := xRatio / 0.5
		r = 59 + t*(157-59)
		g = 130 + t*(78-130)
		b = 246 + t*(221-246)
	} else {
		// Violet to Gold
		t := (xRatio - 0.5) / 0.5
		r = 157 + t*(245-157)
		g = 78 + t*(200-78)
		b = 221 + t*(80-221)
	}

	brightness := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*brightness), clampByte(g*brightness), clampByte(b*brightness))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Wheel", "[2] Placements", "[3] Aspects"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}

	subject := m.req.Time.UTC().Format("2006-01-02 15:04 UTC")
	if m.req.Label != "" {
		subject = m.req.Label + " · " + subject
	}
	return "  " + strings.Join(parts, "  ") + "   " + dimStyle.Render(subject)
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	var status string
	switch {
	case m.computing:
		status = accentStyle.Render(spinnerFrames[m.animTick%len(spinnerFrames)]) +
			dimStyle.Render(" computing via "+m.svc.Provider())
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.snapshot.Chart != nil:
		c := m.snapshot.Chart
		status = dimStyle.Render(fmt.Sprintf("%s · %s", c.Provider, m.snapshot.ComputeDuration.Round(time.Millisecond)))
		if st := m.snapshot.Stats; st.Hits > 0 {
			status += dimStyle.Render(fmt.Sprintf(" · cache %d/%d", st.Hits, st.Hits+st.Misses))
		}
		if c.Partial() {
			status += "  " + warnStyle.Render("! "+c.Warnings[0])
		}
	default:
		status = dimStyle.Render("No chart")
	}

	var help string
	switch m.viewMode {
	case ViewWheel:
		help = "j/k: focus | a: lines | l: labels | [/]: ±1h | {/}: ±1d | r: recompute"
	case ViewPlacements:
		help = "↑↓: scroll | tab: switch view | r: recompute"
	case ViewAspects:
		help = "↑↓: scroll | f: focused only | tab: switch view"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
