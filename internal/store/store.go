// Package store persists valuation history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// ErrNotFound marks a lookup for a valuation that does not exist.
var ErrNotFound = eris.New("valuation not found")

// Filter specifies criteria for listing valuations.
type Filter struct {
	City    string        `json:"city,omitempty"`
	Verdict model.Verdict `json:"verdict,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// Stats summarizes the stored valuation history.
type Stats struct {
	Total            int            `json:"total"`
	AvgConfidence    float64        `json:"avg_confidence"`
	AvgPointEstimate float64        `json:"avg_point_estimate"`
	ByVerdict        map[string]int `json:"by_verdict"`
}

// Store defines the persistence interface for valuation history.
type Store interface {
	SaveValuation(ctx context.Context, result model.ValuationResult) (*model.ValuationRecord, error)
	SaveValuations(ctx context.Context, results []model.ValuationResult) ([]model.ValuationRecord, error)
	GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error)
	ListValuations(ctx context.Context, filter Filter) ([]model.ValuationRecord, error)
	Stats(ctx context.Context) (*Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a store from configuration. Supported drivers are
// "sqlite" and "postgres".
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
