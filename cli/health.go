package cli

import (
	"context"
	"fmt"

	"github.com/drummonds/bandgap/store"
	"github.com/spf13/cobra"
)

func newHealthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the prediction API health",
		Long:  "Call the /healthcheck endpoint and report the status the API answers with.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.newStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			status, err := st.CheckAPIHealth(ctx)
			if err != nil {
				return fmt.Errorf("health check failed: %s", store.ErrorMessage(err))
			}

			out := cmd.OutOrStdout()
			return writeHealth(out, opts.output, newStyles(out, opts.noColor), healthReport{
				APIURL: st.APIURL(),
				Status: status,
			})
		},
	}
}

func newModelsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return writeModels(out, opts.output, newStyles(out, opts.noColor))
		},
	}
}
