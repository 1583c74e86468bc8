package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-natal/internal/natal"
)

type chartFlags struct {
	json         bool
	snapshotPath string
	wheel        bool
	aspects      bool
	noColor      bool
}

func newChartCmd(opts *options) *cobra.Command {
	cf := &chartFlags{}
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print a chart as text or JSON",
		Example: `  ls-natal chart --date 1990-07-04 --time 15:30 --lat 40.7128 --lon -74.006
  ls-natal chart --date 1990-07-04 --json
  ls-natal chart --date 1990-07-04 --snapshot-path chart.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChart(cmd, opts, cf)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&cf.json, "json", false, "Print the chart as JSON instead of tables")
	f.StringVar(&cf.snapshotPath, "snapshot-path", "", "Also write the JSON chart to a file (use - for stdout)")
	f.BoolVar(&cf.wheel, "wheel", true, "Draw the ASCII wheel")
	f.BoolVar(&cf.aspects, "aspects", true, "Print the aspect table")
	f.BoolVar(&cf.noColor, "no-color", false, "Disable colored headings")
	return cmd
}

func runChart(cmd *cobra.Command, opts *options, cf *chartFlags) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cfg.LoggingOptions())
	if err != nil {
		return err
	}

	req, err := a.request(opts, time.Now())
	if err != nil {
		return err
	}

	c, err := a.svc.Compute(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cf.snapshotPath != "" {
		if err := writeSnapshot(out, cf.snapshotPath, c); err != nil {
			return err
		}
		if cf.snapshotPath == "-" {
			return nil
		}
	}
	if cf.json {
		return natal.ExportChart(c).WriteJSON(out)
	}

	color := !cf.noColor && isTerminal(out)
	natal.WriteSummaryTable(out, c)
	if cf.aspects {
		fmt.Fprintln(out)
		heading(out, "Aspects", color)
		natal.WriteAspectTable(out, c)
	}
	if cf.wheel {
		fmt.Fprintln(out)
		heading(out, "Wheel", color)
		natal.WriteMiniWheel(out, c, wheelConfig(out))
	}
	return nil
}

func writeSnapshot(stdout io.Writer, path string, c *natal.Chart) error {
	export := natal.ExportChart(c)
	if path == "-" {
		if err := export.WriteJSON(stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()
	if err := export.WriteJSON(f); err != nil {
		return fmt.Errorf("write JSON to file: %w", err)
	}
	return f.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func heading(w io.Writer, title string, color bool) {
	if !color {
		fmt.Fprintln(w, title)
		return
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	fmt.Fprintln(w, style.Render(title))
}

// wheelConfig widens the mini wheel on wide terminals.
func wheelConfig(w io.Writer) natal.MiniWheelConfig {
	cfg := natal.DefaultMiniWheelConfig()
	f, ok := w.(*os.File)
	if !ok {
		return cfg
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 100 {
		return cfg
	}
	cfg.Width = 65
	cfg.Height = 31
	return cfg
}
