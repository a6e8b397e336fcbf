package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/drummonds/bandgap/config"
	"github.com/drummonds/bandgap/store"
	"github.com/robfig/cron/v3"
)

// UpstreamHealth is the outcome of the latest scheduled probe
type UpstreamHealth struct {
	Up        bool      `json:"up"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt,omitempty"`
}

type healthTracker struct {
	mu     sync.RWMutex
	latest UpstreamHealth
}

func (h *healthTracker) set(health UpstreamHealth) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = health
}

func (h *healthTracker) get() UpstreamHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// newProbeStore builds a store that talks to the upstream directly
func newProbeStore(serverConfig config.ServerConfig) *store.Store {
	return store.New(config.StoreConfig{
		Mode:              config.ModeDevelopment,
		DevelopmentAPIURL: serverConfig.UpstreamURL,
	})
}

// newUpstreamHealth builds a report from one health check's own result.
// The probe store is shared between probes, so its state may already
// belong to another one.
func newUpstreamHealth(status string, err error, checkedAt time.Time) UpstreamHealth {
	if err != nil {
		return UpstreamHealth{
			Status:    "Error: " + err.Error(),
			Error:     store.ErrorMessage(err),
			CheckedAt: checkedAt,
		}
	}
	return UpstreamHealth{Up: true, Status: status, CheckedAt: checkedAt}
}

// ProbeUpstream runs one health check against the prediction service
func (serverHandler *ServerHandler) ProbeUpstream(ctx context.Context) UpstreamHealth {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	status, err := serverHandler.probe.CheckAPIHealth(ctx)
	health := newUpstreamHealth(status, err, time.Now().UTC())
	if err != nil {
		Logger.Warn("Upstream health probe failed", "upstream", serverHandler.Config.UpstreamURL, "error", health.Error)
	} else {
		Logger.Debug("Upstream health probe succeeded", "status", status)
	}

	serverHandler.health.set(health)
	if serverHandler.Metrics != nil {
		serverHandler.Metrics.SetUpstreamUp(health.Up)
	}
	return health
}

// PruneRuns deletes finished runs older than the retention period
func (serverHandler *ServerHandler) PruneRuns(ctx context.Context) (int, error) {
	retention := time.Duration(serverHandler.Config.RunRetentionDays) * 24 * time.Hour
	deleted, err := serverHandler.DB.DeleteOldRuns(ctx, retention)
	if err != nil {
		Logger.Error("Failed to prune runs", "error", err)
		return 0, err
	}
	if serverHandler.Metrics != nil {
		serverHandler.Metrics.AddPruned(deleted)
	}
	Logger.Info("Pruned old runs", "deleted", deleted, "retentionDays", serverHandler.Config.RunRetentionDays)
	return deleted, nil
}

// InitializeSchedules starts the upstream probe and the run pruning job
func (serverHandler *ServerHandler) InitializeSchedules() error {
	// Probe immediately at startup so /api/health has something to report
	Logger.Info("Running upstream health probe at startup")
	go serverHandler.ProbeUpstream(context.Background())

	c := cron.New()
	chain := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)) //ensure we don't kick off another if old one is still running

	probeJob := chain.Then(cron.FuncJob(func() { serverHandler.ProbeUpstream(context.Background()) }))
	if _, err := c.AddJob(fmt.Sprintf("@every %dm", serverHandler.Config.HealthInterval), probeJob); err != nil {
		return fmt.Errorf("scheduling health probe: %w", err)
	}
	Logger.Info("Adding upstream health probe scheduler", "interval_minutes", serverHandler.Config.HealthInterval)

	if serverHandler.Config.RunRetentionDays > 0 {
		pruneJob := chain.Then(cron.FuncJob(func() { serverHandler.PruneRuns(context.Background()) }))
		if _, err := c.AddJob("@daily", pruneJob); err != nil {
			return fmt.Errorf("scheduling run pruning: %w", err)
		}
		Logger.Info("Adding run pruning scheduler", "retention_days", serverHandler.Config.RunRetentionDays)
	}

	c.Start()
	serverHandler.cron = c
	return nil
}
