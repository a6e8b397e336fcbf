package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunRun represents the runs table for Bun ORM
type BunRun struct {
	bun.BaseModel `bun:"table:runs,alias:r"`

	ID           string     `bun:"id,pk"` // ULID as string
	Kind         string     `bun:"kind,notnull"`
	Status       string     `bun:"status,notnull,default:'running'"`
	ModelType    string     `bun:"model_type,nullzero"`
	FormulaCount int        `bun:"formula_count,notnull,default:0"`
	HasFile      bool       `bun:"has_file,notnull,default:false"`
	RemoteAddr   string     `bun:"remote_addr,nullzero"`
	StatusCode   int        `bun:"status_code,notnull,default:0"`
	DurationMs   int64      `bun:"duration_ms,notnull,default:0"`
	Error        string     `bun:"error,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	CompletedAt  *time.Time `bun:"completed_at,nullzero"`
}

// ToRun converts BunRun to Run
func (br *BunRun) ToRun() (*Run, error) {
	parsedULID, err := ulid.Parse(br.ID)
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:           parsedULID,
		Kind:         RunKind(br.Kind),
		Status:       RunStatus(br.Status),
		ModelType:    br.ModelType,
		FormulaCount: br.FormulaCount,
		HasFile:      br.HasFile,
		RemoteAddr:   br.RemoteAddr,
		StatusCode:   br.StatusCode,
		DurationMs:   br.DurationMs,
		Error:        br.Error,
		CreatedAt:    br.CreatedAt,
		CompletedAt:  br.CompletedAt,
	}, nil
}

// FromRun converts Run to BunRun
func FromRun(run *Run) *BunRun {
	return &BunRun{
		ID:           run.ID.String(),
		Kind:         string(run.Kind),
		Status:       string(run.Status),
		ModelType:    run.ModelType,
		FormulaCount: run.FormulaCount,
		HasFile:      run.HasFile,
		RemoteAddr:   run.RemoteAddr,
		StatusCode:   run.StatusCode,
		DurationMs:   run.DurationMs,
		Error:        run.Error,
		CreatedAt:    run.CreatedAt,
		CompletedAt:  run.CompletedAt,
	}
}
