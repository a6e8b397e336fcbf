package webapp

import (
	"strings"
	"testing"
	"time"

	"github.com/drummonds/bandgap/config"
	"github.com/drummonds/bandgap/store"
)

func TestAboutPageRender(t *testing.T) {
	t.Run("Without a store", func(t *testing.T) {
		page := &AboutPage{}
		if page.getAPIDisplay() != "Not configured" {
			t.Errorf("Unexpected API display %q", page.getAPIDisplay())
		}
		if ui := page.Render(); ui == nil {
			t.Error("Render should return a valid UI component")
		}
	})

	t.Run("With a store", func(t *testing.T) {
		st := store.New(config.StoreConfig{Mode: config.ModeDevelopment, DevelopmentAPIURL: "http://localhost:3000/"})
		defer st.Close()
		page := &AboutPage{Store: st}
		if page.getAPIDisplay() != "http://localhost:3000" {
			t.Errorf("Unexpected API display %q", page.getAPIDisplay())
		}
		if ui := page.Render(); ui == nil {
			t.Error("Render should return a valid UI component")
		}
	})
}

func TestDocsPageRender(t *testing.T) {
	page := &DocsPage{}
	if ui := page.Render(); ui == nil {
		t.Error("Render should return a valid UI component")
	}
	if !strings.Contains(modelNames(), "GradientBoosting") {
		t.Errorf("modelNames missing a model: %s", modelNames())
	}
}

func TestRunsPanelRenderStates(t *testing.T) {
	tests := []struct {
		name  string
		panel *RunsPanel
	}{
		{name: "Loading", panel: &RunsPanel{loading: true}},
		{name: "Error", panel: &RunsPanel{error: "Network error"}},
		{name: "Empty", panel: &RunsPanel{}},
		{name: "Runs", panel: &RunsPanel{runs: []Run{
			{ID: "01J00000000000000000000000", Kind: "predict", Status: "completed", FormulaCount: 3, StatusCode: 200},
			{ID: "01J00000000000000000000001", Kind: "healthcheck", Status: "failed", StatusCode: 502, Error: "unreachable"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ui := tt.panel.Render(); ui == nil {
				t.Error("Render should return a valid UI component")
			}
		})
	}
}

func TestRunDetails(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want string
	}{
		{name: "Single formula", run: Run{Kind: "predict", FormulaCount: 1}, want: "1 formula"},
		{name: "File and model", run: Run{Kind: "predict", HasFile: true, ModelType: "XGBoost"}, want: "0 formulas, CSV file, XGBoost"},
		{name: "Health check", run: Run{Kind: "healthcheck"}, want: ""},
		{name: "Error wins", run: Run{Kind: "predict", FormulaCount: 2, Error: "bad"}, want: "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runDetails(tt.run); got != tt.want {
				t.Errorf("runDetails() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(""); got != "" {
		t.Errorf("Empty time should stay empty, got %q", got)
	}
	if got := formatTime("yesterday"); got != "yesterday" {
		t.Errorf("Unparseable time should be returned as is, got %q", got)
	}
	if got := formatTime(time.Now().Add(-10 * time.Second).Format(time.RFC3339Nano)); got != "Just now" {
		t.Errorf("Expected Just now, got %q", got)
	}
	if got := formatTime(time.Now().Add(-5 * time.Minute).Format(time.RFC3339)); got != "5 minutes ago" {
		t.Errorf("Expected 5 minutes ago, got %q", got)
	}
	old := time.Date(2024, time.March, 4, 15, 4, 0, 0, time.UTC)
	if got := formatTime(old.Format(time.RFC3339)); got != "Mar 4, 2024 at 3:04 PM" {
		t.Errorf("Unexpected old time format %q", got)
	}
}

func TestConfigFromWindowOffBrowser(t *testing.T) {
	if got := ConfigFromWindow(); got != config.DefaultStoreConfig() {
		t.Errorf("Expected defaults off the browser, got %+v", got)
	}
	if got := BuildAPIURL("api/runs"); got != "/api/runs" {
		t.Errorf("BuildAPIURL = %q", got)
	}
}
