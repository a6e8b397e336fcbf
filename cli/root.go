// Package cli implements bandgapctl, a command-line client for the band gap
// prediction service.
package cli

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/drummonds/bandgap/config"
	"github.com/drummonds/bandgap/store"
	"github.com/spf13/cobra"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// options holds the persistent flags shared by every subcommand
type options struct {
	apiURL  string
	mode    string
	output  string
	timeout time.Duration
	verbose bool
	noColor bool
}

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "bandgapctl",
		Short: "Band gap prediction client",
		Long: `bandgapctl talks to the BandGap-ml prediction service, either directly or
through the gateway, to check its health and predict the band gap of materials
from chemical formulas or a CSV file.

The API URL comes from --api, or from BANDGAP_MODE with
BANDGAP_DEVELOPMENT_API_URL / BANDGAP_PRODUCTION_API_URL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case FormatText, FormatJSON, FormatYAML, FormatCSV:
			default:
				return fmt.Errorf("unknown output format %q (text, json, yaml, csv)", opts.output)
			}
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			store.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "prediction API base URL (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&opts.mode, "mode", "", "configuration mode (development or production)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", FormatText, "output format (text, json, yaml, csv)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newHealthCommand(opts))
	rootCmd.AddCommand(newPredictCommand(opts))
	rootCmd.AddCommand(newRunsCommand(opts))
	rootCmd.AddCommand(newModelsCommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// storeConfig resolves the StoreConfig from the environment and the flags
func (o *options) storeConfig() (config.StoreConfig, error) {
	cfg, err := config.LoadStore()
	if err != nil {
		return cfg, err
	}
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	if o.apiURL != "" {
		// an explicit URL wins whatever the mode
		cfg.Mode = config.ModeDevelopment
		cfg.DevelopmentAPIURL = o.apiURL
	}
	if cfg.APIURL() == "" {
		return cfg, fmt.Errorf("%w: no API URL for mode %q, use --api", config.ErrInvalidConfig, cfg.Mode)
	}
	return cfg, nil
}

// newStore builds the store every subcommand runs its action on
func (o *options) newStore() (*store.Store, error) {
	cfg, err := o.storeConfig()
	if err != nil {
		return nil, err
	}
	return store.New(cfg), nil
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bandgapctl %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
