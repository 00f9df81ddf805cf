package repository

import (
	"context"
	"time"

	"HistPull/internal/domain/models"
)

// BarStore reads and writes persisted bars. Reads must return
// window-filtered, ascending-sorted results; writes are idempotent for
// identical record identities (duplicate writes are no-ops, not errors).
type BarStore interface {
	ReadBars(ctx context.Context, q models.Query) ([]models.Bar, error)
	WriteBars(ctx context.Context, q models.Query, bars []models.Bar) error
}

// TickStore reads and writes persisted tick prints with the same read
// ordering and write idempotency contract as BarStore.
type TickStore interface {
	ReadTicks(ctx context.Context, q models.Query) ([]models.Tick, error)
	WriteTicks(ctx context.Context, q models.Query, ticks []models.Tick) error
}

// MarketStore is the persistence collaborator consumed by the backfill
// engine. Implementations must be safe for concurrent use.
type MarketStore interface {
	BarStore
	TickStore
	Health(ctx context.Context) error
}

// Provider is the upstream broker collaborator. Each fetch call is bounded
// by the provider's own per-call limits; the core does not retry, a single
// failed call aborts the query.
type Provider interface {
	// ResolveContract returns models.ErrContractNotFound when the symbol
	// cannot be resolved.
	ResolveContract(ctx context.Context, symbol, secType string) (models.Contract, error)
	FetchBars(ctx context.Context, c models.Contract, end time.Time, durationExpr, barSize, whatToShow string, useRTH bool) ([]models.Bar, error)
	FetchTicks(ctx context.Context, c models.Contract, start, end time.Time, count int, useRTH bool) ([]models.Tick, error)
}

// BackfillPublisher emits completed-backfill events for downstream
// consumers. Publishing is advisory: failures are logged, never fatal.
type BackfillPublisher interface {
	PublishBackfill(ctx context.Context, ev *models.BackfillEvent) error
	Close() error
}

// Metrics records operational counters for the backfill engine.
type Metrics interface {
	RecordProviderCall(kind, symbol string)
	RecordGapsDetected(kind string, n int)
	RecordCacheHit(endpoint string)
	RecordRowsPersisted(kind string, n int)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
