package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/drummonds/bandgap/database"
	"github.com/spf13/cobra"
)

// RunsPath is the gateway endpoint listing recorded runs
const RunsPath = "/api/runs"

func newRunsCommand(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs recorded by the gateway",
		Long:  "Show the requests the bandgap gateway forwarded to the prediction service. --api must point at the gateway.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.storeConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			runs, err := fetchRuns(ctx, http.DefaultClient, cfg.APIURL(), limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return writeRuns(out, opts.output, newStyles(out, opts.noColor), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func fetchRuns(ctx context.Context, client *http.Client, apiURL string, limit, offset int) ([]database.Run, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	target := strings.TrimRight(apiURL, "/") + RunsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		if json.Unmarshal(body, &apiErr) == nil {
			if msg := apiErr.Message + apiErr.Detail; msg != "" {
				return nil, fmt.Errorf("failed to fetch runs: %s (status %d)", msg, resp.StatusCode)
			}
		}
		return nil, fmt.Errorf("failed to fetch runs: status %d", resp.StatusCode)
	}

	var runs []database.Run
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}
