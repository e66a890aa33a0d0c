// Package loader wires the pipeline stages together: collect every record
// id from the listing, resolve them into normalized documents, post the
// result home in batches. One call to Run performs one complete transfer.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/batch"
	"github.com/Sternrassler/animals-etl-client/pkg/details"
	"github.com/Sternrassler/animals-etl-client/pkg/logging"
	"github.com/Sternrassler/animals-etl-client/pkg/pagination"
)

// CatalogAPI is the full endpoint surface the pipeline needs. *catalog.API
// satisfies it.
type CatalogAPI interface {
	pagination.PageLister
	details.DetailFetcher
	batch.Submitter
}

// Config holds the pipeline settings. Zero fields take the stage defaults.
type Config struct {
	// Concurrency caps in-flight detail fetches.
	Concurrency int
	// GroupSize is the detail stage progress group.
	GroupSize int
	// BatchSize is how many records go into one home POST, at most 100.
	BatchSize int
}

// Stats summarizes one run. On a failed run it reflects whatever completed
// before the fault.
type Stats struct {
	RecordsListed  int
	RecordsFetched int
	RecordsPosted  int
	Batches        int
	Duration       time.Duration
}

// Loader executes the three-stage transfer.
type Loader struct {
	aggregator *pagination.Aggregator
	fetcher    *details.Fetcher
	poster     *batch.Poster
	batchSize  int
	logger     zerolog.Logger
}

// New builds the stages over api and validates cfg.
func New(api CatalogAPI, cfg Config) (*Loader, error) {
	if api == nil {
		return nil, fmt.Errorf("catalog api is required")
	}
	aggregator, err := pagination.NewAggregator(api)
	if err != nil {
		return nil, err
	}
	fetcher, err := details.NewFetcher(api, details.Config{
		Concurrency: cfg.Concurrency,
		GroupSize:   cfg.GroupSize,
	})
	if err != nil {
		return nil, err
	}
	poster, err := batch.NewPoster(api, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = batch.DefaultBatchSize
	}

	return &Loader{
		aggregator: aggregator,
		fetcher:    fetcher,
		poster:     poster,
		batchSize:  cfg.BatchSize,
		logger:     logging.NewLogger("loader"),
	}, nil
}

// Run performs one complete transfer. The stages run strictly in order and
// the first fault aborts the run; only the process boundary decides what an
// error means beyond that.
func (l *Loader) Run(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	l.logger.Info().Msg("Run started")

	stageStart := time.Now()
	ids, err := l.aggregator.CollectIDs(ctx)
	stageDuration.WithLabelValues("list").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		return stats, fmt.Errorf("listing stage: %w", err)
	}
	stats.RecordsListed = len(ids)

	stageStart = time.Now()
	records, err := l.fetcher.FetchAll(ctx, ids)
	stageDuration.WithLabelValues("details").Observe(time.Since(stageStart).Seconds())
	if err != nil {
		return stats, fmt.Errorf("detail stage: %w", err)
	}
	stats.RecordsFetched = len(records)

	stageStart = time.Now()
	posted, err := l.poster.PostAll(ctx, records)
	stageDuration.WithLabelValues("post").Observe(time.Since(stageStart).Seconds())
	stats.RecordsPosted = posted
	stats.Batches = (posted + l.batchSize - 1) / l.batchSize
	if err != nil {
		return stats, fmt.Errorf("post stage: %w", err)
	}

	l.logger.Info().
		Int("listed", stats.RecordsListed).
		Int("fetched", stats.RecordsFetched).
		Int("posted", stats.RecordsPosted).
		Int("batches", stats.Batches).
		Dur("duration", time.Since(start)).
		Msg("Run complete")
	return stats, nil
}
