// Package gateway serves the web app, forwards prediction requests to the
// prediction service and keeps a history of them.
package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/drummonds/bandgap/config"
	"github.com/drummonds/bandgap/database"
	"github.com/drummonds/bandgap/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Version can be set at build time with -ldflags
var Version = "dev"

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB      database.Repository
	Echo    *echo.Echo
	Config  config.ServerConfig
	Metrics *Metrics

	upstream *url.URL
	probe    *store.Store
	health   healthTracker
	cron     *cron.Cron
}

// NewServerHandler creates the echo instance with the gateway middleware
func NewServerHandler(serverConfig config.ServerConfig, db database.Repository, metrics *Metrics) (*ServerHandler, error) {
	upstream, err := url.Parse(serverConfig.UpstreamURL)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("%w: upstream_url %q is not an absolute URL", config.ErrInvalidConfig, serverConfig.UpstreamURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	serverHandler := &ServerHandler{
		DB:       db,
		Echo:     e,
		Config:   serverConfig,
		Metrics:  metrics,
		upstream: upstream,
		probe:    newProbeStore(serverConfig),
	}
	e.HTTPErrorHandler = serverHandler.errorHandler

	// CORS configuration - the development API URL may be a different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))
	e.Use(middleware.Recover())

	return serverHandler, nil
}

// RegisterRoutes adds the proxied endpoints, the history API and finally the
// web app, which must be last since it answers every other path
func (serverHandler *ServerHandler) RegisterRoutes(appHandler http.Handler) {
	e := serverHandler.Echo
	proxy := ProxyMiddleware(serverHandler.upstream)

	Logger.Info("Setting up proxied routes...", "upstream", serverHandler.upstream.String())
	e.GET(store.HealthPath, unreachable, serverHandler.RecordRun(database.RunKindHealthcheck), proxy)
	e.POST(store.PredictPath, unreachable, serverHandler.RecordRun(database.RunKindPredict), proxy)

	Logger.Info("Setting up API routes...")
	e.GET("/api/runs", serverHandler.GetRecentRuns)
	e.GET("/api/runs/:id", serverHandler.GetRun)
	e.GET("/api/health", serverHandler.GetHealth)
	e.GET("/config.js", serverHandler.GetConfigJS)
	if serverHandler.Metrics != nil {
		e.GET("/metrics", serverHandler.Metrics.Handler())
	}
	// keep unknown API paths away from the web app
	e.Any("/api/*", unreachable)

	if appHandler != nil {
		// Register go-app specific resources
		e.GET("/app.js", echo.WrapHandler(appHandler))
		e.GET("/app.css", echo.WrapHandler(appHandler))
		e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))
		e.GET("/wasm_exec.js", echo.WrapHandler(appHandler))

		// Serve static assets
		e.Static("/web", "web")

		e.Any("/*", echo.WrapHandler(appHandler))
	}
}

// unreachable is the terminal handler behind the proxy middleware
func unreachable(c echo.Context) error {
	return echo.ErrNotFound
}

// GetHealth reports the gateway and the last upstream probe
// @Summary Gateway health
// @Description Reports whether the gateway is up and the result of the last upstream probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (serverHandler *ServerHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "bandgap gateway",
		"version":  Version,
		"upstream": serverHandler.health.get(),
	})
}

// ClientConfig is the StoreConfig published to the browser
func (serverHandler *ServerHandler) ClientConfig() config.StoreConfig {
	return serverHandler.Config.StoreConfig
}

// GetConfigJS publishes the client configuration as window.bandgapConfig
func (serverHandler *ServerHandler) GetConfigJS(c echo.Context) error {
	payload, err := json.Marshal(serverHandler.ClientConfig())
	if err != nil {
		return err
	}
	configJS := fmt.Sprintf(`
// bandgap client configuration
window.bandgapConfig = %s;
console.log("bandgap config loaded:", window.bandgapConfig);
`, payload)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "application/javascript", []byte(configJS))
}

// errorHandler answers JSON for API paths and falls back to echo otherwise
func (serverHandler *ServerHandler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	path := c.Request().URL.Path
	isAPI := strings.HasPrefix(path, "/api/") || path == store.HealthPath || path == store.PredictPath
	if !isAPI {
		serverHandler.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}

	if code == http.StatusNotFound {
		c.JSON(http.StatusNotFound, map[string]string{
			"error":   "Not Found",
			"message": "The requested API endpoint does not exist",
			"path":    path,
		})
		return
	}
	// same shape as the prediction service's errors
	c.JSON(code, map[string]string{"detail": message})
}

// Start runs the schedules and serves until the server is closed
func (serverHandler *ServerHandler) Start() error {
	if err := serverHandler.InitializeSchedules(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%s", serverHandler.Config.ListenAddrIP, serverHandler.Config.ListenAddrPort)
	Logger.Info("Starting gateway", "address", addr, "upstream", serverHandler.upstream.String())
	if err := serverHandler.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops the schedules, the server and the probe store
func (serverHandler *ServerHandler) Close() error {
	if serverHandler.cron != nil {
		<-serverHandler.cron.Stop().Done()
	}
	serverHandler.probe.Close()
	return serverHandler.Echo.Close()
}
