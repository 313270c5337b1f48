package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/client"
	"github.com/ansebmr/surveydash/pkg/dashboard"
	"github.com/ansebmr/surveydash/pkg/history"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var ch *cache.Cache
			if cfg.Cache.Enabled {
				ch = cache.New(cfg.Cache.TTL.Std())
			}

			var rec client.Recorder
			var hist history.Log
			if cfg.History.Enabled {
				h, err := history.New(cfg.History.DBPath)
				if err != nil {
					return fmt.Errorf("init history: %w", err)
				}
				defer func() { _ = h.Close() }()
				rec = h
				hist = h
			}

			cl := client.New(cfg, ch, rec)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cl.Ping(ctx) {
				log.Printf("backend %s reachable", cfg.Backend.BaseURL)
			} else {
				log.Printf("backend %s unreachable; pages will serve sample data", cfg.Backend.BaseURL)
			}

			srv := dashboard.New(cfg, cl, ch, hist)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "surveydash.yaml", "path to config file")
	return cmd
}
