package storage

import (
	"context"
	"errors"
	"time"

	"contractmap/internal/graph"
)

// ErrNotFound is returned when an analysis id is unknown.
var ErrNotFound = errors.New("analysis not found")

// Analysis is one persisted hierarchy snapshot.
type Analysis struct {
	ID        string
	Source    string
	Dialect   string
	Direction string
	CreatedAt time.Time
	Root      *graph.Node
}

// AnalysisSummary is an Analysis without its tree.
type AnalysisSummary struct {
	ID        string
	Source    string
	RootName  string
	Dialect   string
	Direction string
	NodeCount int
	CreatedAt time.Time
}

// Store persists analysis snapshots.
type Store interface {
	// SaveAnalysis stores the snapshot and returns its id.
	SaveAnalysis(ctx context.Context, a *Analysis) (string, error)

	// LoadAnalysis rebuilds a stored snapshot.
	LoadAnalysis(ctx context.Context, id string) (*Analysis, error)

	// ListAnalyses returns summaries, newest first.
	ListAnalyses(ctx context.Context) ([]AnalysisSummary, error)

	DeleteAnalysis(ctx context.Context, id string) error
	Close() error
}
