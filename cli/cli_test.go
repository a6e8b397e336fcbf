package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/drummonds/bandgap/database"
	"github.com/drummonds/bandgap/store"
	"gopkg.in/yaml.v3"
)

const testPredictions = `[{"composition":"TiO2","is_semiconductor":1,"semiconductor_probability":0.93,"band_gap":3.05},` +
	`{"composition":"BaLa2In2O7","is_semiconductor":0,"semiconductor_probability":0.12,"band_gap":0}]`

// fakeService answers like the prediction service behind the gateway
type fakeService struct {
	formulas  []string
	modelType string
	fileName  string
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /predict_bandgap", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		f.formulas = r.MultipartForm.Value[store.FieldFormula]
		f.modelType = r.FormValue(store.FieldModelType)
		if files := r.MultipartForm.File[store.FieldFile]; len(files) > 0 {
			f.fileName = files[0].Filename
		}
		if len(f.formulas) == 1 && f.formulas[0] == "Xx" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail": "Invalid formula: Xx"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testPredictions))
	})
	mux.HandleFunc("GET /api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit 5, got %q", r.URL.Query().Get("limit"))
		}
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		runs := []database.Run{
			{ID: database.NewRunID(created), Kind: database.RunKindPredict, Status: database.RunStatusCompleted,
				ModelType: "RandomForest", FormulaCount: 3, StatusCode: 200, DurationMs: 42, CreatedAt: created},
			{ID: database.NewRunID(created), Kind: database.RunKindHealthcheck, Status: database.RunStatusFailed,
				StatusCode: 502, Error: "connection refused", CreatedAt: created},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	})
	return mux
}

func newFakeService(t *testing.T) (*fakeService, string) {
	t.Helper()
	service := &fakeService{}
	server := httptest.NewServer(service.handler(t))
	t.Cleanup(server.Close)
	return service, server.URL
}

// execute runs bandgapctl with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3", "abc123", "2024-05-01")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestHealthCommand(t *testing.T) {
	_, apiURL := newFakeService(t)

	tests := []struct {
		name     string
		format   string
		contains []string
	}{
		{"text", FormatText, []string{"BandGap-ml API", "Status: ok", apiURL}},
		{"json", FormatJSON, []string{`"status": "ok"`, `"apiUrl": "` + apiURL + `"`}},
		{"yaml", FormatYAML, []string{"status: ok", "api_url: " + apiURL}},
		{"csv", FormatCSV, []string{"api_url,status\n" + apiURL + ",ok\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "health", "--api", apiURL, "-o", tt.format)
			if err != nil {
				t.Fatalf("health failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestHealthCommandUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	apiURL := server.URL
	server.Close()

	_, err := execute(t, "health", "--api", apiURL)
	if err == nil {
		t.Fatal("expected an error for an unreachable API")
	}
	if !strings.HasPrefix(err.Error(), "health check failed:") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPredictCommand(t *testing.T) {
	service, apiURL := newFakeService(t)

	out, err := execute(t, "predict", "--api", apiURL,
		"-f", "TiO2, BaLa2In2O7", "-f", "Bi4Ti3O12", "--model", "RandomForest", "-o", FormatCSV)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}

	wantFormulas := []string{"TiO2", "BaLa2In2O7", "Bi4Ti3O12"}
	if strings.Join(service.formulas, "|") != strings.Join(wantFormulas, "|") {
		t.Errorf("expected formulas %v, got %v", wantFormulas, service.formulas)
	}
	if service.modelType != "RandomForest" {
		t.Errorf("expected model RandomForest, got %q", service.modelType)
	}

	want := "composition,is_semiconductor,semiconductor_probability,band_gap\n" +
		"TiO2,1,0.93,3.05\n" +
		"BaLa2In2O7,0,0.12,0\n"
	if out != want {
		t.Errorf("unexpected csv output:\n%s", out)
	}
}

func TestPredictCommandFormats(t *testing.T) {
	_, apiURL := newFakeService(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "predict", "--api", apiURL, "TiO2")
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		for _, want := range []string{"Predicted band gaps (2)", "Composition", "TiO2", "yes", "3.0500", "no"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "predict", "--api", apiURL, "-o", "json", "TiO2")
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		var results []store.PredictionResult
		if err := json.Unmarshal([]byte(out), &results); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(results) != 2 || results[0].Composition != "TiO2" {
			t.Errorf("unexpected results: %+v", results)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "predict", "--api", apiURL, "-o", "yaml", "TiO2")
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		var results []store.PredictionResult
		if err := yaml.Unmarshal([]byte(out), &results); err != nil {
			t.Fatalf("output is not YAML: %v\n%s", err, out)
		}
		if len(results) != 2 || results[1].Composition != "BaLa2In2O7" || results[0].BandGap != 3.05 {
			t.Errorf("unexpected results: %+v", results)
		}
	})
}

func TestPredictCommandFile(t *testing.T) {
	service, apiURL := newFakeService(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "materials.csv")
	if err := os.WriteFile(file, []byte("formula\nTiO2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	exportDir := filepath.Join(dir, "exports")

	if _, err := execute(t, "predict", "--api", apiURL, "--file", file, "--export", exportDir); err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if service.fileName != "materials.csv" {
		t.Errorf("expected file materials.csv, got %q", service.fileName)
	}
	if service.modelType != store.DefaultModelType {
		t.Errorf("expected default model, got %q", service.modelType)
	}

	exported, err := filepath.Glob(filepath.Join(exportDir, "predicted_band_gaps_*.csv"))
	if err != nil || len(exported) != 1 {
		t.Fatalf("expected one exported CSV, got %v (%v)", exported, err)
	}
	data, err := os.ReadFile(exported[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "composition,is_semiconductor") {
		t.Errorf("unexpected export:\n%s", data)
	}
}

func TestPredictCommandErrors(t *testing.T) {
	_, apiURL := newFakeService(t)
	dir := t.TempDir()
	notCSV := filepath.Join(dir, "materials.txt")
	if err := os.WriteFile(notCSV, []byte("TiO2"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no formulas", []string{"predict", "--api", apiURL, "-f", " , "}, "no formulas given"},
		{"unknown model", []string{"predict", "--api", apiURL, "--model", "Linear", "TiO2"}, `unknown model type "Linear"`},
		{"not a csv", []string{"predict", "--api", apiURL, "--file", notCSV}, "is not a CSV file"},
		{"missing file", []string{"predict", "--api", apiURL, "--file", filepath.Join(dir, "missing.csv")}, "failed to read"},
		{"server rejects", []string{"predict", "--api", apiURL, "Xx"}, `prediction failed: {"detail":"Invalid formula: Xx"}`},
		{"bad output", []string{"predict", "--api", apiURL, "-o", "xml", "TiO2"}, `unknown output format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunsCommand(t *testing.T) {
	_, apiURL := newFakeService(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "runs", "--api", apiURL, "--limit", "5")
		if err != nil {
			t.Fatalf("runs failed: %v", err)
		}
		for _, want := range []string{"Recent runs (2)", "3 formulas (RandomForest)", "connection refused", "2024-05-01T10:00:00Z"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("csv", func(t *testing.T) {
		out, err := execute(t, "runs", "--api", apiURL, "-n", "5", "-o", "csv")
		if err != nil {
			t.Fatalf("runs failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d:\n%s", len(lines), out)
		}
		if !strings.Contains(lines[1], ",predict,completed,RandomForest,3,false,200,42,") {
			t.Errorf("unexpected row: %s", lines[1])
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "runs", "--api", apiURL, "-n", "5", "-o", "json")
		if err != nil {
			t.Fatalf("runs failed: %v", err)
		}
		var runs []database.Run
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(runs) != 2 || runs[1].Status != database.RunStatusFailed {
			t.Errorf("unexpected runs: %+v", runs)
		}
	})
}

func TestModelsCommand(t *testing.T) {
	out, err := execute(t, "models", "--no-color")
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if !strings.Contains(out, store.DefaultModelType+" (default)") {
		t.Errorf("default model not marked:\n%s", out)
	}
	for _, model := range store.ModelTypes {
		if !strings.Contains(out, model.Name) {
			t.Errorf("output missing model %s", model.Name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "bandgapctl 1.2.3 (abc123) built on 2024-05-01") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}

func TestStoreConfigFlags(t *testing.T) {
	t.Setenv("BANDGAP_MODE", "production")
	t.Setenv("BANDGAP_PRODUCTION_API_URL", "https://bandgap.example.org")

	opts := &options{}
	cfg, err := opts.storeConfig()
	if err != nil {
		t.Fatalf("storeConfig failed: %v", err)
	}
	if cfg.APIURL() != "https://bandgap.example.org" {
		t.Errorf("expected production URL, got %q", cfg.APIURL())
	}

	opts.apiURL = "http://localhost:8000"
	cfg, err = opts.storeConfig()
	if err != nil {
		t.Fatalf("storeConfig failed: %v", err)
	}
	if cfg.APIURL() != "http://localhost:8000" {
		t.Errorf("expected --api to win, got %q", cfg.APIURL())
	}

	t.Setenv("BANDGAP_PRODUCTION_API_URL", "")
	opts = &options{}
	if _, err := opts.storeConfig(); err == nil {
		t.Error("expected an error when no API URL is configured")
	}
}
