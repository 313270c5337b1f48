package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ansebmr/surveydash/pkg/export"
	"github.com/ansebmr/surveydash/pkg/models"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		f          models.Filter
		format     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a slice of survey responses to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			cl, cleanup, err := buildClient(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ds, err := cl.Fetch(cmd.Context(), f)
			if err != nil {
				return err
			}

			var body []byte
			switch format {
			case models.FormatCSV:
				body, err = export.CSV(ds.Responses)
			case models.FormatJSON:
				body, err = export.JSON(ds.Responses)
			default:
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if err != nil {
				return fmt.Errorf("encode export: %w", err)
			}

			if outPath == "" || outPath == "-" {
				_, err = os.Stdout.Write(body)
				return err
			}
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			fmt.Fprintf(os.Stderr, "wrote %d records (%s) to %s\n", len(ds.Responses), ds.Source, outPath)
			if ds.Truncated {
				fmt.Fprintln(os.Stderr, "warning: partial data, record ceiling reached")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "surveydash.yaml", "path to config file")
	cmd.Flags().StringVar(&f.Survey, "survey", "", "survey title (required)")
	cmd.Flags().StringVar(&f.Gender, "gender", "", "filter by gender")
	cmd.Flags().StringVar(&f.AgeGroup, "age-group", "", "filter by age group")
	cmd.Flags().StringVar(&f.Employment, "employment", "", "filter by employment status")
	cmd.Flags().StringVar(&f.StartDate, "start-date", "", "filter from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.EndDate, "end-date", "", "filter to date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "page size")
	cmd.Flags().BoolVar(&f.Full, "full", false, "fetch the full dataset up to the ceiling")
	cmd.Flags().StringVar(&format, "format", models.FormatCSV, "output format: csv or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	return cmd
}
