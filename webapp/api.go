package webapp

import (
	"strings"

	"github.com/drummonds/bandgap/config"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// ConfigFromWindow reads window.bandgapConfig written by /config.js.
// Missing keys keep their defaults.
func ConfigFromWindow() config.StoreConfig {
	cfg := config.DefaultStoreConfig()
	if !app.IsClient {
		return cfg
	}

	global := app.Window().Get("bandgapConfig")
	if !global.Truthy() {
		return cfg
	}
	if v := global.Get("mode"); v.Truthy() {
		cfg.Mode = v.String()
	}
	if v := global.Get("developmentApiUrl"); v.Truthy() {
		cfg.DevelopmentAPIURL = v.String()
	}
	if v := global.Get("productionApiUrl"); v.Truthy() {
		cfg.ProductionAPIURL = v.String()
	}
	return cfg
}

// ClientStoreConfig is ConfigFromWindow with an unset URL for the current
// mode pointed at the page origin, where the gateway proxies the API
func ClientStoreConfig() config.StoreConfig {
	cfg := ConfigFromWindow()
	if cfg.APIURL() != "" || !app.IsClient {
		return cfg
	}

	pageURL := app.Window().URL()
	origin := pageURL.Scheme + "://" + pageURL.Host
	if cfg.IsDevelopment() {
		cfg.DevelopmentAPIURL = origin
	} else {
		cfg.ProductionAPIURL = origin
	}
	return cfg
}

// BuildAPIURL constructs a gateway URL from a path. The gateway serves the
// app, so the URL is relative to the page.
// Example: BuildAPIURL("api/runs") -> "/api/runs"
func BuildAPIURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// Run is one request the gateway forwarded to the prediction service
type Run struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	ModelType    string `json:"modelType,omitempty"`
	FormulaCount int    `json:"formulaCount"`
	HasFile      bool   `json:"hasFile"`
	StatusCode   int    `json:"statusCode,omitempty"`
	DurationMs   int64  `json:"durationMs"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"createdAt"`
	CompletedAt  string `json:"completedAt,omitempty"`
}
