package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/client"
	"github.com/ansebmr/surveydash/pkg/config"
	"github.com/ansebmr/surveydash/pkg/history"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "surveydash",
		Short:   "Surveydash — survey analytics dashboard over the survey API",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newFetchCmd(),
		newExportCmd(),
		newSurveysCmd(),
		newCacheCmd(),
		newStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file if it exists, otherwise defaults. CLI
// one-shots work without a config file; serve insists on whatever is given.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildClient wires a backend client with cache and history per config.
// The returned cleanup closes the history database.
func buildClient(cfg *config.Config) (*client.Client, func(), error) {
	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.TTL.Std())
	}

	var rec client.Recorder
	cleanup := func() {}
	if cfg.History.Enabled {
		log, err := history.New(cfg.History.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init history: %w", err)
		}
		rec = log
		cleanup = func() { _ = log.Close() }
	}

	return client.New(cfg, c, rec), cleanup, nil
}
