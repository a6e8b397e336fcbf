package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PredictionResult is one row of a prediction response
type PredictionResult struct {
	Composition              string  `json:"composition" yaml:"composition"`
	IsSemiconductor          int     `json:"is_semiconductor" yaml:"is_semiconductor"`
	SemiconductorProbability float64 `json:"semiconductor_probability" yaml:"semiconductor_probability"`
	BandGap                  float64 `json:"band_gap" yaml:"band_gap"`
}

// CSVHeader is the header row written by Predictions.CSV
var CSVHeader = []string{"composition", "is_semiconductor", "semiconductor_probability", "band_gap"}

// Results decodes the body for display. Both a list and a single object are accepted.
func (p Predictions) Results() ([]PredictionResult, error) {
	trimmed := bytes.TrimSpace(p)
	if p.IsEmpty() {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var single PredictionResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("failed to decode prediction: %w", err)
		}
		return []PredictionResult{single}, nil
	}

	var results []PredictionResult
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return results, nil
}

// CSV renders the predictions as a CSV table with a header row
func (p Predictions) CSV() ([]byte, error) {
	results, err := p.Results()
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, result := range results {
		record := []string{
			result.Composition,
			strconv.Itoa(result.IsSemiconductor),
			strconv.FormatFloat(result.SemiconductorProbability, 'f', -1, 64),
			strconv.FormatFloat(result.BandGap, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return b.Bytes(), nil
}

// ExportFilename names a CSV download, e.g. predicted_band_gaps_2024-05-01T10:00:00.csv
func ExportFilename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "predicted_band_gaps"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format("2006-01-02T15:04:05"))
}
