package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ansebmr/surveydash/pkg/history"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		recent     int
		sinceHours int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show fetch history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			h, err := history.New(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer h.Close()

			ctx := cmd.Context()

			if recent > 0 {
				records, err := h.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No fetches recorded.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tENDPOINT\tSURVEY\tSOURCE\tSTATUS\tRECORDS\tLATENCY")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Endpoint, r.Survey, r.Source, r.StatusCode, r.Records, r.LatencyMs)
				}
				return w.Flush()
			}

			since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)
			summaries, err := h.Summary(ctx, since)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No fetches recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENDPOINT\tSOURCE\tFETCHES\tRECORDS\tAVG LATENCY")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.0fms\n", s.Endpoint, s.Source, s.Fetches, s.Records, s.AvgLatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "surveydash.yaml", "path to config file")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recent fetches instead of the summary")
	cmd.Flags().IntVar(&sinceHours, "hours", 24, "summary window in hours")
	return cmd
}
