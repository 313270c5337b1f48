package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ansebmr/surveydash/pkg/models"
)

// The response cache lives in the serve process, so cache management talks
// to the running server instead of opening shared state.
func newCacheCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache of a running server",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callServer(cmd.Context(), http.MethodGet, addr+"/stats")
			if err != nil {
				return err
			}

			var out struct {
				Cache models.CacheStats `json:"cache"`
			}
			if err := json.Unmarshal(body, &out); err != nil {
				return fmt.Errorf("decode stats: %w", err)
			}

			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", out.Cache.Entries, out.Cache.Hits, out.Cache.Misses)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := addr + "/cache/clear"
			if expiredOnly {
				u += "?expired=true"
			}
			if _, err := callServer(cmd.Context(), http.MethodPost, u); err != nil {
				return err
			}

			if expiredOnly {
				fmt.Println("Expired cache entries cleared.")
			} else {
				fmt.Println("All cache entries cleared.")
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "base URL of the running server")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

func callServer(ctx context.Context, method, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach server at %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
