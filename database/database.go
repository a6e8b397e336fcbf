package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// RunStatus represents the status of a proxied request
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunKind is the backend endpoint a run went to
type RunKind string

const (
	RunKindHealthcheck RunKind = "healthcheck"
	RunKindPredict     RunKind = "predict"
)

// RunDetails is what is known about a run before the backend answers
type RunDetails struct {
	ModelType    string
	FormulaCount int
	HasFile      bool
	RemoteAddr   string
}

// Run is one request forwarded to the prediction service
type Run struct {
	ID           ulid.ULID  `json:"id"`
	Kind         RunKind    `json:"kind"`
	Status       RunStatus  `json:"status"`
	ModelType    string     `json:"modelType,omitempty"`
	FormulaCount int        `json:"formulaCount"`
	HasFile      bool       `json:"hasFile"`
	RemoteAddr   string     `json:"remoteAddr,omitempty"`
	StatusCode   int        `json:"statusCode,omitempty"`
	DurationMs   int64      `json:"durationMs"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Repository defines database operations
type Repository interface {
	Close() error
	CreateRun(ctx context.Context, kind RunKind, details RunDetails) (*Run, error)
	CompleteRun(ctx context.Context, id ulid.ULID, statusCode int, duration time.Duration) error
	FailRun(ctx context.Context, id ulid.ULID, statusCode int, duration time.Duration, errorMsg string) error
	GetRun(ctx context.Context, id ulid.ULID) (*Run, error)
	GetRecentRuns(ctx context.Context, limit, offset int) ([]Run, error)
	DeleteOldRuns(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewRunID creates a ULID for a run started at t
func NewRunID(t time.Time) ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy())
}
