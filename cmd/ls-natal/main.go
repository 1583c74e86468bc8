// Command ls-natal casts natal charts in the terminal, on stdout, or over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/config"
	"github.com/litescript/ls-natal/internal/ephem"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/metrics"
	"github.com/litescript/ls-natal/internal/natal"
	"github.com/litescript/ls-natal/internal/state"
	"github.com/litescript/ls-natal/internal/ui"
	"github.com/litescript/ls-natal/internal/version"
)

// options holds the flags shared by every command.
type options struct {
	configPath  string
	logLevel    string
	date        string
	clock       string
	tz          string
	lat         float64
	lon         float64
	place       string
	houseSystem string
	ephemMode   string
	node        bool
	label       string
}

// app is the wiring built from configuration before a command runs.
type app struct {
	cfg       *config.Config
	log       *logging.Logger
	collector *metrics.Collector
	cache     *state.Manager
	svc       *natal.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ls-natal",
		Short: "Natal chart wheel, placements and aspects",
		Long: `ls-natal casts a natal chart for a moment and place.

Run without a subcommand to open the interactive wheel. Use "chart" for
plain text or JSON on stdout and "serve" for the HTTP API.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file (default ./"+config.DefaultPath+" if present)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.date, "date", "", "Birth date YYYY-MM-DD (default today)")
	pf.StringVar(&opts.clock, "time", "", "Birth time HH:MM[:SS] (default "+natal.DefaultClock+")")
	pf.StringVar(&opts.tz, "tz", "UTC", "IANA time zone the date and time are given in")
	pf.Float64Var(&opts.lat, "lat", 0, "Birth latitude in degrees, north positive")
	pf.Float64Var(&opts.lon, "lon", 0, "Birth longitude in degrees, east positive")
	pf.StringVar(&opts.place, "place", "", "Birth place name for display")
	pf.StringVar(&opts.houseSystem, "house-system", "", "House system ("+strings.Join(houseSystemNames(), ", ")+")")
	pf.StringVar(&opts.ephemMode, "ephem", "", "Ephemeris source (auto, horizons, almanac)")
	pf.BoolVar(&opts.node, "node", true, "Include the mean lunar node")
	pf.StringVar(&opts.label, "label", "", "Chart label")

	root.AddCommand(newChartCmd(opts), newServeCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ls-natal %s\n", version.Version)
		},
	}
}

// loadConfig reads .env, the YAML file and LS_NATAL_* variables, then
// applies any flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("lat") {
		cfg.Observer.Lat = opts.lat
		cfg.Observer.Name = ""
	}
	if flags.Changed("lon") {
		cfg.Observer.Lon = opts.lon
		cfg.Observer.Name = ""
	}
	if flags.Changed("place") {
		cfg.Observer.Name = opts.place
	}
	if flags.Changed("house-system") {
		cfg.Chart.HouseSystem = opts.houseSystem
	}
	if flags.Changed("ephem") {
		cfg.Ephemeris.Mode = opts.ephemMode
	}
	if flags.Changed("node") {
		cfg.Chart.IncludeNode = opts.node
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// newApp wires logging, metrics, the chart cache and the chart service.
// logOpts overrides cfg.Logging so the TUI can force a log file.
func newApp(cfg *config.Config, logOpts logging.Options) (*app, error) {
	log := logging.New(logging.LevelInfo)
	if err := log.Configure(logOpts); err != nil {
		return nil, err
	}

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	provider, err := ephem.NewProvider(cfg.EphemerisMode(), cfg.HorizonsOptions(), log)
	if err != nil {
		return nil, err
	}

	cache := state.NewManager(cfg.StateConfig())
	svc := natal.NewService(provider, cfg.NatalOptions(), log,
		natal.WithCache(cache), natal.WithRecorder(collector))

	log.WithFields(logging.Fields{
		"provider": provider.Name(),
		"houses":   cfg.Chart.HouseSystem,
	}).Debug("chart service ready")

	return &app{
		cfg:       cfg,
		log:       log,
		collector: collector,
		cache:     cache,
		svc:       svc,
	}, nil
}

// request builds the chart request from flags and configured defaults.
func (a *app) request(opts *options, now time.Time) (natal.Request, error) {
	loc, err := time.LoadLocation(opts.tz)
	if err != nil {
		return natal.Request{}, fmt.Errorf("%w: time zone %q: %v", natal.ErrInvalidRequest, opts.tz, err)
	}

	date := opts.date
	if date == "" {
		date = now.In(loc).Format("2006-01-02")
	}
	t, err := natal.ParseMoment(date, opts.clock, loc)
	if err != nil {
		return natal.Request{}, err
	}

	req := natal.Request{
		Time:        t,
		Observer:    a.cfg.DefaultObserver(),
		HouseSystem: a.cfg.HouseSystem(),
		Label:       opts.label,
	}
	return req, req.Validate()
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	// The screen belongs to the TUI; logs always go to a file.
	logOpts := cfg.LoggingOptions()
	if logOpts.File == "" {
		logOpts.File = filepath.Join(os.TempDir(), "ls-natal.log")
	}
	a, err := newApp(cfg, logOpts)
	if err != nil {
		return err
	}

	req, err := a.request(opts, time.Now())
	if err != nil {
		return err
	}

	a.log.Info("starting TUI for %s (%s)", req.Time.UTC().Format(time.RFC3339), a.svc.Provider())
	p := tea.NewProgram(ui.New(a.svc, a.cache, req), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// houseSystemNames lists the accepted --house-system values.
func houseSystemNames() []string {
	var names []string
	for hs := chart.HouseEqual; hs <= chart.HouseKoch; hs++ {
		names = append(names, hs.String())
	}
	return names
}
