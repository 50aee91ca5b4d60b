// Package store durably accumulates scraped lots across runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/zakupwatch/lotscan/internal/model"
)

// Store is the persistence contract for lot records. Appends are atomic with
// respect to reads: a reader never observes part of a batch.
type Store interface {
	// Append adds lots and reports how many were genuinely new by lot_id.
	// Whether duplicates are written anyway is the Dedup policy's call.
	Append(ctx context.Context, lots []model.Lot) (added int, err error)
	Count(ctx context.Context) (int, error)
	// Page reads records back in insertion order. Pages are 1-based;
	// out-of-range pages return an empty slice.
	Page(ctx context.Context, pageNo, perPage int) ([]model.Lot, error)
	Close() error
}

// Options configures store-level policy.
type Options struct {
	// Dedup rejects lots whose lot_id is already stored. The default keeps
	// the observed upstream behavior: every append grows the store.
	Dedup bool
}

// RunRecord is one pagination run's bookkeeping entry.
type RunRecord struct {
	ID            string
	StartPage     int
	MaxPages      int
	PagesFetched  int
	LotsAdded     int
	RowsSkipped   int
	SchemaStopped bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Config selects and locates a store backend.
type Config struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
	Dedup  bool   `yaml:"dedup" mapstructure:"dedup"`
}

// Open builds the configured backend.
func Open(cfg Config) (Store, error) {
	opts := Options{Dedup: cfg.Dedup}
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.Path, opts)
	case "csv":
		return NewCSV(cfg.Path, opts)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
