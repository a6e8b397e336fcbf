package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"

	config "github.com/drummonds/bandgap/config"
	database "github.com/drummonds/bandgap/database"
	gateway "github.com/drummonds/bandgap/gateway"
	"github.com/drummonds/bandgap/store"
	"github.com/drummonds/bandgap/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	gateway.Logger = Logger
	store.Logger = Logger
}

func main() {
	port := flag.String("port", "", "Port to run the gateway on (overrides config)")
	upstream := flag.String("upstream", "", "Prediction service URL (overrides config)")
	flag.Parse()

	serverConfig, logger, err := config.SetupServer()
	if err != nil {
		os.Exit(1)
	}
	injectGlobals(logger) //inject the logger into all of the packages

	if *port != "" {
		serverConfig.ListenAddrPort = *port
	}
	if *upstream != "" {
		serverConfig.UpstreamURL = *upstream
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🔬  BandGap-ml Gateway")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• WASM application server")
	fmt.Println("• Proxies /healthcheck and /predict_bandgap to", serverConfig.UpstreamURL)
	fmt.Println("• Request history at /api/runs, metrics at /metrics")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(ctx, serverConfig)
	if err != nil {
		Logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	serverHandler, err := gateway.NewServerHandler(serverConfig, db, gateway.NewMetrics())
	if err != nil {
		Logger.Error("Failed to create gateway", "error", err)
		os.Exit(1)
	}

	// Serve CSS from embedded filesystem
	serverHandler.Echo.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	Logger.Info("Setting up go-app WASM UI")
	serverHandler.RegisterRoutes(webapp.Handler(nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- serverHandler.Start()
	}()

	fmt.Printf("\n✅  Gateway running on %s:%s\n", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	fmt.Printf("🔬  Open http://localhost:%s in your browser\n\n", serverConfig.ListenAddrPort)

	select {
	case err := <-errCh:
		if err != nil {
			Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		Logger.Info("Shutting down gateway")
	}

	if err := serverHandler.Close(); err != nil {
		Logger.Error("Failed to close gateway", "error", err)
	}
}
