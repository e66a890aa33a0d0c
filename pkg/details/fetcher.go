// Package details resolves record ids into normalized documents. A fixed
// admission gate caps how many detail requests are in flight at once, and
// results come back in listing order regardless of completion order.
package details

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/batch"
	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

// Defaults applied by NewFetcher when the corresponding Config field is zero.
const (
	DefaultConcurrency = 32
	DefaultGroupSize   = 5000
)

// DetailFetcher fetches one detail document. *catalog.API satisfies it;
// tests substitute a fake.
type DetailFetcher interface {
	Detail(ctx context.Context, id catalog.RecordID) (catalog.RawDetail, error)
}

// Config holds the fetch stage settings.
type Config struct {
	// Concurrency caps the number of detail requests in flight at once.
	Concurrency int
	// GroupSize is how many ids are processed per progress group.
	GroupSize int
}

// Fetcher pulls detail documents through the admission gate and normalizes
// them on the way out.
type Fetcher struct {
	api    DetailFetcher
	cfg    Config
	logger zerolog.Logger
}

// NewFetcher validates cfg, fills in defaults and returns a ready Fetcher.
func NewFetcher(api DetailFetcher, cfg Config) (*Fetcher, error) {
	if api == nil {
		return nil, fmt.Errorf("detail fetcher is required")
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.GroupSize == 0 {
		cfg.GroupSize = DefaultGroupSize
	}
	if cfg.GroupSize < 1 {
		return nil, fmt.Errorf("group size must be positive, got %d", cfg.GroupSize)
	}
	return &Fetcher{
		api:    api,
		cfg:    cfg,
		logger: logging.NewLogger("details"),
	}, nil
}

// Config returns the effective configuration after defaulting.
func (f *Fetcher) Config() Config {
	return f.cfg
}

// FetchAll resolves every id into a normalized record. Ids enter the gate
// in input order and are processed in groups of GroupSize with a progress
// line per group; the result slice mirrors the input order position by
// position. The first fault cancels outstanding work and aborts the stage.
func (f *Fetcher) FetchAll(ctx context.Context, ids []catalog.RecordID) ([]catalog.NormalizedRecord, error) {
	if len(ids) == 0 {
		return []catalog.NormalizedRecord{}, nil
	}

	results := make([]catalog.NormalizedRecord, len(ids))
	done := 0
	for _, group := range batch.Chunk(ids, f.cfg.GroupSize) {
		if err := f.fetchGroup(ctx, group, results[done:done+len(group)]); err != nil {
			return nil, err
		}
		done += len(group)
		detailGroupsTotal.Inc()
		f.logger.Info().
			Int("fetched", done).
			Int("total", len(ids)).
			Msg("Detail group complete")
	}
	return results, nil
}

// fetchGroup fans one group out across the admission gate. Each worker owns
// a distinct slot of out, so the results need no lock.
func (f *Fetcher) fetchGroup(ctx context.Context, ids []catalog.RecordID, out []catalog.NormalizedRecord) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gate := make(chan struct{}, f.cfg.Concurrency)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

admit:
	for i, id := range ids {
		select {
		case <-ctx.Done():
			break admit
		case gate <- struct{}{}:
		}

		wg.Add(1)
		go func(slot int, id catalog.RecordID) {
			defer wg.Done()
			defer func() { <-gate }()

			detail, err := f.api.Detail(ctx, id)
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			out[slot] = catalog.Normalize(detail)
			detailsFetchedTotal.Inc()
		}(i, id)
	}

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
