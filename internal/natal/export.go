package natal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-natal/internal/chart"
)

// ChartExport is the JSON-serializable representation of a chart.
type ChartExport struct {
	Label       string         `json:"label,omitempty"`
	Time        time.Time      `json:"time"`
	Observer    ObserverExport `json:"observer"`
	HouseSystem string         `json:"house_system"`
	HousesExact bool           `json:"houses_exact"`
	Provider    string         `json:"provider"`
	Fingerprint string         `json:"fingerprint"`
	Bodies      []BodyExport   `json:"bodies"`
	Houses      []HouseExport  `json:"houses"`
	Aspects     []AspectExport `json:"aspects"`
	Warnings    []string       `json:"warnings,omitempty"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// ObserverExport is a JSON-friendly birth place.
type ObserverExport struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// BodyExport is a JSON-friendly body placement.
type BodyExport struct {
	Body      string  `json:"body"`
	Glyph     string  `json:"glyph"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
	Label     string  `json:"label"`
	House     int     `json:"house,omitempty"`
	Element   string  `json:"element"`
	Modality  string  `json:"modality"`
}

// HouseExport is a JSON-friendly house cusp.
type HouseExport struct {
	House int     `json:"house"`
	Cusp  float64 `json:"cusp"`
	Sign  string  `json:"sign"`
	Label string  `json:"label"`
}

// AspectExport is a JSON-friendly aspect.
type AspectExport struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Type       string  `json:"type"`
	Angle      float64 `json:"angle"`
	Orb        float64 `json:"orb"`
	Separation float64 `json:"separation"`
	Tag        string  `json:"tag"`
}

// ExportChart converts a chart to an exportable format.
func ExportChart(c *Chart) *ChartExport {
	if c == nil {
		return &ChartExport{}
	}

	export := &ChartExport{
		Label: c.Request.Label,
		Time:  c.Request.Time.UTC(),
		Observer: ObserverExport{
			Name: c.Request.Observer.Name,
			Lat:  c.Request.Observer.LatDeg,
			Lon:  c.Request.Observer.LonDeg,
		},
		HouseSystem: c.Request.HouseSystem.String(),
		HousesExact: c.HousesExact,
		Provider:    c.Provider,
		Fingerprint: c.Request.FingerprintHex(),
		Bodies:      make([]BodyExport, 0, len(c.Placements)),
		Houses:      make([]HouseExport, 0, len(c.Houses)),
		Aspects:     make([]AspectExport, 0, len(c.Aspects)),
		Warnings:    c.Warnings,
		ComputedAt:  c.Computed,
	}

	for _, bp := range c.Placements {
		p := bp.Placement
		export.Bodies = append(export.Bodies, BodyExport{
			Body:      bp.Body.String(),
			Glyph:     string(bp.Body.Glyph()),
			Longitude: p.Longitude(),
			Sign:      p.Sign.String(),
			Degree:    p.Degree,
			Label:     p.String(),
			House:     c.HouseOf(bp.Body),
			Element:   string(p.Sign.Element()),
			Modality:  string(p.Sign.Modality()),
		})
	}

	for i, cusp := range c.Houses {
		p, err := chart.Place(cusp)
		if err != nil {
			continue
		}
		export.Houses = append(export.Houses, HouseExport{
			House: i + 1,
			Cusp:  cusp,
			Sign:  p.Sign.String(),
			Label: p.String(),
		})
	}

	for _, a := range c.Aspects {
		export.Aspects = append(export.Aspects, AspectExport{
			A:          a.A.String(),
			B:          a.B.String(),
			Type:       a.Type.String(),
			Angle:      a.Type.Angle(),
			Orb:        a.Orb,
			Separation: a.Separation,
			Tag:        a.Type.Tag(),
		})
	}

	return export
}

// WriteJSON writes the chart as JSON to the given writer.
func (e *ChartExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummaryTable writes the placements as a text table.
func WriteSummaryTable(w io.Writer, c *Chart) {
	if c == nil {
		fmt.Fprintln(w, "No chart")
		return
	}

	title := "Natal Chart"
	if c.Request.Label != "" {
		title += ": " + c.Request.Label
	}
	fmt.Fprintf(w, "%s @ %s (%.4f, %.4f)\n", title,
		c.Request.Time.UTC().Format("2006-01-02 15:04 MST"),
		c.Request.Observer.LatDeg, c.Request.Observer.LonDeg)
	fmt.Fprintln(w, strings.Repeat("─", 64))

	if len(c.Placements) == 0 {
		fmt.Fprintln(w, "No placements")
		return
	}

	fmt.Fprintf(w, "%-2s %-11s %-18s %9s %5s %-6s %-8s\n",
		"", "Body", "Position", "Longitude", "House", "Elem", "Mode")
	fmt.Fprintln(w, strings.Repeat("─", 64))

	for _, bp := range c.Placements {
		p := bp.Placement
		house := "-"
		if h := c.HouseOf(bp.Body); h > 0 {
			house = fmt.Sprintf("%d", h)
		}
		fmt.Fprintf(w, "%-2s %-11s %-18s %8.3f° %5s %-6s %-8s\n",
			string(bp.Body.Glyph()),
			truncateStr(bp.Body.String(), 11),
			p.String(),
			p.Longitude(),
			house,
			p.Sign.Element(),
			p.Sign.Modality(),
		)
	}

	fmt.Fprintf(w, "\nHouses: %s", c.Request.HouseSystem)
	if !c.HousesExact && c.Houses != nil {
		fmt.Fprint(w, " (approximated by equal houses)")
	}
	fmt.Fprintf(w, "  Source: %s\n", c.Provider)
	for _, warn := range c.Warnings {
		fmt.Fprintf(w, "! %s\n", warn)
	}
}

// WriteAspectTable writes the interpretation aspects, tightest orb first.
func WriteAspectTable(w io.Writer, c *Chart) {
	if c == nil || len(c.Aspects) == 0 {
		fmt.Fprintln(w, "No aspects")
		return
	}

	aspects := SortByOrb(c.Aspects)
	fmt.Fprintf(w, "%-11s %-2s %-11s %-11s %7s %-7s\n", "Body", "", "Body", "Aspect", "Orb", "Kind")
	fmt.Fprintln(w, strings.Repeat("─", 56))
	for _, a := range aspects {
		fmt.Fprintf(w, "%-11s %-2s %-11s %-11s %7s %-7s\n",
			truncateStr(a.A.String(), 11),
			string(a.Type.Glyph()),
			truncateStr(a.B.String(), 11),
			a.Type,
			formatOrb(a.Orb),
			a.Type.Tag(),
		)
	}
	fmt.Fprintf(w, "\nTotal: %d aspects within %.0f°\n", len(aspects), c.InterpretationOrb)
}

// SortByOrb returns a copy of aspects ordered by orb, ties kept in input order.
func SortByOrb(aspects []chart.Aspect) []chart.Aspect {
	out := make([]chart.Aspect, len(aspects))
	copy(out, aspects)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Orb < out[j].Orb })
	return out
}

// MiniWheelConfig sizes the ASCII wheel.
type MiniWheelConfig struct {
	Width  int
	Height int
	Lines  bool
}

// DefaultMiniWheelConfig returns a wheel that fits an 80-column terminal.
func DefaultMiniWheelConfig() MiniWheelConfig {
	return MiniWheelConfig{Width: 49, Height: 23, Lines: true}
}

// WriteMiniWheel draws the chart wheel in a box with a legend.
func WriteMiniWheel(w io.Writer, c *Chart, cfg MiniWheelConfig) {
	if c == nil || len(c.Wheel.Points) == 0 {
		fmt.Fprintln(w, "No bodies to draw")
		return
	}
	if cfg.Width < 11 {
		cfg.Width = 11
	}
	if cfg.Height < 7 {
		cfg.Height = 7
	}

	g := NewGrid(cfg.Width, cfg.Height)
	DrawWheel(g, c.Wheel, FitProjection(cfg.Width, cfg.Height), DrawOptions{
		Lines:  cfg.Lines,
		Labels: LabelAbbrev,
	})

	fmt.Fprintf(w, "┌%s┐\n", strings.Repeat("─", cfg.Width))
	for _, row := range g.Rows() {
		fmt.Fprintf(w, "│%s│\n", string(row))
	}
	fmt.Fprintf(w, "└%s┘\n", strings.Repeat("─", cfg.Width))

	// Legend
	for _, p := range c.Wheel.Points {
		fmt.Fprintf(w, "  %-3s %s %-11s %s\n", p.Body.Abbrev(), string(p.Body.Glyph()), p.Body, p.Placement)
	}
	if cfg.Lines {
		fmt.Fprintf(w, "  %c hard  %c soft  (orb %.0f°)\n", HardLineRune, SoftLineRune, c.WheelOrb)
	}
}

func formatOrb(orb float64) string {
	deg := int(orb)
	minute := int((orb - float64(deg)) * 60)
	return fmt.Sprintf("%d°%02d'", deg, minute)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
