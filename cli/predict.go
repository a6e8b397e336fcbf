package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drummonds/bandgap/store"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	formulas  []string
	file      string
	model     string
	exportDir string
}

func newPredictCommand(opts *options) *cobra.Command {
	predictOpts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict [formula...]",
		Short: "Predict band gaps for chemical formulas",
		Long: `Predict the band gap of materials. Formulas come from --formula (repeatable or
comma separated), from the arguments, or from a CSV file with the formulas in the
first column.

Examples:
  bandgapctl predict -f "BaLa2In2O7, TiO2" --model RandomForest
  bandgapctl predict --file materials.csv -o csv > predictions.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := predictOpts.payload(args)
			if err != nil {
				return err
			}

			st, err := opts.newStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			predictions, err := st.PredictBandGap(ctx, payload)
			if err != nil {
				return fmt.Errorf("prediction failed: %s", store.ErrorMessage(err))
			}

			out := cmd.OutOrStdout()
			if err := writePredictions(out, opts.output, newStyles(out, opts.noColor), predictions); err != nil {
				return err
			}

			if predictOpts.exportDir != "" {
				path, err := exportPredictions(predictOpts.exportDir, predictions, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Predictions saved to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&predictOpts.formulas, "formula", "f", nil, "chemical formula, repeatable or comma separated")
	cmd.Flags().StringVar(&predictOpts.file, "file", "", "CSV file with formulas in the first column")
	cmd.Flags().StringVarP(&predictOpts.model, "model", "m", store.DefaultModelType, "model type (see 'bandgapctl models')")
	cmd.Flags().StringVar(&predictOpts.exportDir, "export", "", "also save the predictions as CSV into this directory")

	return cmd
}

// payload builds the form from the flags and positional formulas
func (p *predictOptions) payload(args []string) (store.PredictPayload, error) {
	if _, ok := store.LookupModelType(p.model); !ok {
		return store.PredictPayload{}, fmt.Errorf("unknown model type %q", p.model)
	}

	payload := store.PredictPayload{ModelType: p.model}
	for _, value := range append(append([]string{}, p.formulas...), args...) {
		payload.Formulas = append(payload.Formulas, store.ParseFormulas(value)...)
	}

	if p.file != "" {
		if !strings.EqualFold(filepath.Ext(p.file), ".csv") {
			return store.PredictPayload{}, fmt.Errorf("file %s is not a CSV file", p.file)
		}
		content, err := os.ReadFile(p.file)
		if err != nil {
			return store.PredictPayload{}, fmt.Errorf("failed to read %s: %w", p.file, err)
		}
		payload.File = &store.FileField{Name: filepath.Base(p.file), Content: content}
	}

	if payload.IsEmpty() {
		return store.PredictPayload{}, fmt.Errorf("no formulas given, use --formula or --file")
	}
	return payload, nil
}

// exportPredictions writes the predictions CSV the way the web client names its download
func exportPredictions(dir string, predictions store.Predictions, now time.Time) (string, error) {
	data, err := predictions.CSV()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	// colons are not portable in file names
	name := strings.ReplaceAll(store.ExportFilename("", now), ":", "-")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
