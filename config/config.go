package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ModeDevelopment selects the development API URL
const ModeDevelopment = "development"

// EnvPrefix is the prefix of every environment variable read by koanf
const EnvPrefix = "BANDGAP_"

// ErrInvalidConfig is returned when a loaded configuration cannot be used
var ErrInvalidConfig = errors.New("invalid config")

// StoreConfig holds the settings the client-side store is constructed with
type StoreConfig struct {
	Mode              string `koanf:"mode" json:"mode"`
	DevelopmentAPIURL string `koanf:"development_api_url" json:"developmentApiUrl"`
	ProductionAPIURL  string `koanf:"production_api_url" json:"productionApiUrl"`
}

// IsDevelopment reports whether the development API URL is in use
func (c StoreConfig) IsDevelopment() bool {
	return c.Mode == ModeDevelopment
}

// APIURL returns the backend base URL for the configured mode.
// The production URL is neither validated nor defaulted.
func (c StoreConfig) APIURL() string {
	if c.IsDevelopment() {
		return c.DevelopmentAPIURL
	}
	return c.ProductionAPIURL
}

// ServerConfig contains all of the gateway settings
type ServerConfig struct {
	ListenAddrIP     string `koanf:"addr"`
	ListenAddrPort   string `koanf:"port"`
	UpstreamURL      string `koanf:"upstream_url"`
	DatabaseType     string `koanf:"database_type"`
	DatabaseHost     string `koanf:"database_host"`
	DatabasePort     string `koanf:"database_port"`
	DatabaseUser     string `koanf:"database_user"`
	DatabasePassword string `koanf:"database_password"`
	DatabaseDbname   string `koanf:"database_name"`
	DatabaseSslmode  string `koanf:"database_sslmode"`
	HealthInterval   int    `koanf:"health_interval"` // minutes
	RunRetentionDays int    `koanf:"run_retention_days"`
	StoreConfig      `koanf:",squash"`
}

// DefaultStoreConfig returns the client defaults
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Mode:              "production",
		DevelopmentAPIURL: "http://localhost:3000",
	}
}

// DefaultServerConfig returns the gateway defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddrPort:   "3000",
		UpstreamURL:      "http://127.0.0.1:5039",
		DatabaseType:     "sqlite",
		DatabaseHost:     "localhost",
		DatabasePort:     "5432",
		DatabaseUser:     "bandgap",
		DatabaseDbname:   "databases/bandgap.sqlite",
		DatabaseSslmode:  "disable",
		HealthInterval:   1,
		RunRetentionDays: 30,
		StoreConfig:      DefaultStoreConfig(),
	}
}

// loadEnvFiles loads .env files, silently ignoring the ones that don't exist
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")
}

// newKoanf layers the optional YAML file named by BANDGAP_CONFIG and the
// BANDGAP_* environment variables
func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// BANDGAP_PRODUCTION_API_URL -> production_api_url
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	return k, nil
}

// LoadServer builds a ServerConfig from defaults, the config file and the environment
func LoadServer() (ServerConfig, error) {
	loadEnvFiles()
	cfg := DefaultServerConfig()

	k, err := newKoanf()
	if err != nil {
		return cfg, err
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, fmt.Errorf("decoding server config: %w", err)
	}

	if cfg.ListenAddrPort == "" {
		return cfg, fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	}
	if cfg.UpstreamURL == "" {
		return cfg, fmt.Errorf("%w: upstream_url must not be empty", ErrInvalidConfig)
	}
	if cfg.HealthInterval < 1 {
		cfg.HealthInterval = 1
	}
	return cfg, nil
}

// LoadStore builds the client StoreConfig from defaults, the config file and the environment
func LoadStore() (StoreConfig, error) {
	loadEnvFiles()
	cfg := DefaultStoreConfig()

	k, err := newKoanf()
	if err != nil {
		return cfg, err
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, fmt.Errorf("decoding store config: %w", err)
	}
	return cfg, nil
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger, error) {
	logger := setupLogging()
	Logger = logger

	serverConfig, err := LoadServer()
	if err != nil {
		logger.Error("Failed to load server configuration", "error", err)
		return serverConfig, logger, err
	}

	logger.Info("Server configuration loaded",
		"port", serverConfig.ListenAddrPort,
		"upstream", serverConfig.UpstreamURL,
		"database", serverConfig.DatabaseType,
		"mode", serverConfig.Mode)
	if serverConfig.APIURL() == "" {
		logger.Warn("No API URL configured for the current mode, the browser client will use the gateway origin", "mode", serverConfig.Mode)
	}
	return serverConfig, logger, nil
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	loadEnvFiles()
	var level slog.Level

	switch getEnv("LOG_LEVEL", "debug") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var logWriter io.Writer = os.Stdout
	if getEnv("LOG_OUTPUT", "stdout") == "file" {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "bandgap.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
		} else if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
		} else {
			logWriter = logFile
			fmt.Println("Logging to file: ", logPath)
		}
	}

	return slog.New(slog.NewTextHandler(logWriter, handlerOptions))
}

// NewLogger returns the logger configured by LOG_LEVEL / LOG_OUTPUT / LOG_FILE
func NewLogger() *slog.Logger {
	return setupLogging()
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
