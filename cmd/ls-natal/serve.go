package main

import (
	"github.com/spf13/cobra"

	"github.com/litescript/ls-natal/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts over HTTP",
		Long: `Serve the chart API:

  GET /api/chart?date=YYYY-MM-DD&time=HH:MM&lat=&lon=&house=&label=
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			a, err := newApp(cfg, cfg.LoggingOptions())
			if err != nil {
				return err
			}

			srv := server.New(a.svc, server.Options{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				Observer:     cfg.DefaultObserver(),
				HouseSystem:  cfg.HouseSystem(),
			}, a.cache, a.collector, a.log)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8088)")
	return cmd
}
