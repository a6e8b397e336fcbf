package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/drummonds/bandgap/database"
	"github.com/drummonds/bandgap/store"
	"gopkg.in/yaml.v3"
)

// styles used by the text output. They are bound to the output writer so
// colors are only emitted on a terminal.
type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	running lipgloss.Style
}

func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		return styles{
			title:   r.NewStyle(),
			header:  r.NewStyle(),
			cell:    r.NewStyle(),
			good:    r.NewStyle(),
			bad:     r.NewStyle(),
			muted:   r.NewStyle(),
			running: r.NewStyle(),
		}
	}
	return styles{
		title: r.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}),
		header: r.NewStyle().Bold(true).Underline(true),
		cell:   r.NewStyle(),
		good:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}),
		bad:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		running: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}),
	}
}

// healthReport is the structured form of the health command output
type healthReport struct {
	APIURL string `json:"apiUrl" yaml:"api_url"`
	Status string `json:"status" yaml:"status"`
}

func writeHealth(w io.Writer, format string, st styles, report healthReport) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatYAML:
		return writeYAML(w, report)
	case FormatCSV:
		_, err := fmt.Fprintf(w, "api_url,status\n%s,%s\n", report.APIURL, report.Status)
		return err
	}

	var b strings.Builder
	b.WriteString(st.title.Render("BandGap-ml API"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  URL:    %s\n", report.APIURL)
	fmt.Fprintf(&b, "  Status: %s\n", st.good.Render(report.Status))
	_, err := io.WriteString(w, b.String())
	return err
}

func writePredictions(w io.Writer, format string, st styles, predictions store.Predictions) error {
	switch format {
	case FormatJSON:
		var b bytes.Buffer
		if err := json.Indent(&b, predictions, "", "  "); err != nil {
			return fmt.Errorf("failed to format predictions: %w", err)
		}
		b.WriteString("\n")
		_, err := w.Write(b.Bytes())
		return err
	case FormatCSV:
		data, err := predictions.CSV()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	results, err := predictions.Results()
	if err != nil {
		// Not the usual prediction rows; show whatever the service sent
		if format == FormatYAML {
			var raw any
			if jsonErr := json.Unmarshal(predictions, &raw); jsonErr != nil {
				return err
			}
			return writeYAML(w, raw)
		}
		_, werr := fmt.Fprintf(w, "%s\n", predictions.String())
		return werr
	}

	if format == FormatYAML {
		if results == nil {
			results = []store.PredictionResult{}
		}
		return writeYAML(w, results)
	}
	return writeResultsTable(w, st, results)
}

func writeResultsTable(w io.Writer, st styles, results []store.PredictionResult) error {
	var b strings.Builder
	b.WriteString(st.title.Render(fmt.Sprintf("Predicted band gaps (%d)", len(results))))
	b.WriteString("\n")
	if len(results) == 0 {
		b.WriteString(st.muted.Render("No predictions returned"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	width := len("Composition")
	for _, result := range results {
		width = max(width, len(result.Composition))
	}

	column := func(s lipgloss.Style, text string, n int) string {
		return s.Width(n).Render(text)
	}

	b.WriteString(column(st.header, "Composition", width+2))
	b.WriteString(column(st.header, "Semiconductor", 16))
	b.WriteString(column(st.header, "Probability", 14))
	b.WriteString(st.header.Render("Band gap (eV)"))
	b.WriteString("\n")

	for _, result := range results {
		semi := st.bad
		label := "no"
		if result.IsSemiconductor == 1 {
			semi = st.good
			label = "yes"
		}
		b.WriteString(column(st.cell, result.Composition, width+2))
		b.WriteString(column(semi, label, 16))
		b.WriteString(column(st.cell, strconv.FormatFloat(result.SemiconductorProbability, 'f', 4, 64), 14))
		b.WriteString(st.cell.Render(strconv.FormatFloat(result.BandGap, 'f', 4, 64)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// runRow flattens a run for yaml and csv output
type runRow struct {
	ID           string `yaml:"id"`
	Kind         string `yaml:"kind"`
	Status       string `yaml:"status"`
	ModelType    string `yaml:"model_type,omitempty"`
	FormulaCount int    `yaml:"formula_count"`
	HasFile      bool   `yaml:"has_file"`
	StatusCode   int    `yaml:"status_code,omitempty"`
	DurationMs   int64  `yaml:"duration_ms"`
	Error        string `yaml:"error,omitempty"`
	CreatedAt    string `yaml:"created_at"`
}

func toRunRow(run database.Run) runRow {
	return runRow{
		ID:           run.ID.String(),
		Kind:         string(run.Kind),
		Status:       string(run.Status),
		ModelType:    run.ModelType,
		FormulaCount: run.FormulaCount,
		HasFile:      run.HasFile,
		StatusCode:   run.StatusCode,
		DurationMs:   run.DurationMs,
		Error:        run.Error,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeRuns(w io.Writer, format string, st styles, runs []database.Run) error {
	rows := make([]runRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, toRunRow(run))
	}

	switch format {
	case FormatJSON:
		if runs == nil {
			runs = []database.Run{}
		}
		return writeJSON(w, runs)
	case FormatYAML:
		return writeYAML(w, rows)
	case FormatCSV:
		var b strings.Builder
		b.WriteString("id,kind,status,model_type,formula_count,has_file,status_code,duration_ms,created_at\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "%s,%s,%s,%s,%d,%t,%d,%d,%s\n",
				row.ID, row.Kind, row.Status, row.ModelType, row.FormulaCount,
				row.HasFile, row.StatusCode, row.DurationMs, row.CreatedAt)
		}
		_, err := io.WriteString(w, b.String())
		return err
	}

	var b strings.Builder
	b.WriteString(st.title.Render(fmt.Sprintf("Recent runs (%d)", len(rows))))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(st.muted.Render("No runs recorded yet"))
		b.WriteString("\n")
	}
	for _, row := range rows {
		status := st.good
		switch row.Status {
		case string(database.RunStatusFailed):
			status = st.bad
		case string(database.RunStatusRunning):
			status = st.running
		}
		fmt.Fprintf(&b, "%s  %-11s %s %s",
			st.muted.Render(row.CreatedAt), row.Kind,
			status.Width(10).Render(row.Status), st.muted.Render(row.ID))
		if row.Kind == string(database.RunKindPredict) {
			fmt.Fprintf(&b, "  %d formulas", row.FormulaCount)
			if row.HasFile {
				b.WriteString(" + file")
			}
			if row.ModelType != "" {
				fmt.Fprintf(&b, " (%s)", row.ModelType)
			}
		}
		if row.Error != "" {
			fmt.Fprintf(&b, "  %s", st.bad.Render(row.Error))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeModels(w io.Writer, format string, st styles) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, store.ModelTypes)
	case FormatYAML:
		return writeYAML(w, store.ModelTypes)
	case FormatCSV:
		var b strings.Builder
		b.WriteString("name,label\n")
		for _, model := range store.ModelTypes {
			fmt.Fprintf(&b, "%s,%s\n", model.Name, model.Label)
		}
		_, err := io.WriteString(w, b.String())
		return err
	}

	var b strings.Builder
	b.WriteString(st.title.Render("Model types"))
	b.WriteString("\n")
	for _, model := range store.ModelTypes {
		name := model.Name
		if name == store.DefaultModelType {
			name += " (default)"
		}
		fmt.Fprintf(&b, "  %s\n    %s\n", st.header.UnsetUnderline().Render(name), st.muted.Render(model.Description))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}
