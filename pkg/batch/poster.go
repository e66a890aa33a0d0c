package batch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

const (
	// MaxBatchSize is the destination's hard per-request ceiling. Batches
	// above it are rejected here before any request goes out.
	MaxBatchSize = 100
	// DefaultBatchSize is used when no size is configured.
	DefaultBatchSize = 100
)

// Submitter delivers one batch to the destination. *catalog.API satisfies
// it; tests substitute a fake.
type Submitter interface {
	SubmitBatch(ctx context.Context, records []catalog.NormalizedRecord) (catalog.BatchAck, error)
}

// Poster posts normalized records home in fixed-size batches, strictly one
// after the other.
type Poster struct {
	submitter Submitter
	size      int
	logger    zerolog.Logger
}

// NewPoster validates the batch size and returns a ready Poster. A size of
// zero selects DefaultBatchSize; anything above MaxBatchSize or below one
// is refused.
func NewPoster(s Submitter, size int) (*Poster, error) {
	if s == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if size == 0 {
		size = DefaultBatchSize
	}
	if size < 1 || size > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d out of range 1..%d", size, MaxBatchSize)
	}
	return &Poster{
		submitter: s,
		size:      size,
		logger:    logging.NewLogger("poster"),
	}, nil
}

// PostAll chunks records and submits the batches in order. The first failed
// batch aborts the remainder; the returned count covers only acknowledged
// records. Empty input is a successful no-op.
func (p *Poster) PostAll(ctx context.Context, records []catalog.NormalizedRecord) (int, error) {
	groups := Chunk(records, p.size)
	posted := 0

	for i, group := range groups {
		ack, err := p.submitter.SubmitBatch(ctx, group)
		if err != nil {
			return posted, fmt.Errorf("batch %d of %d: %w", i+1, len(groups), err)
		}
		posted += len(group)
		batchesPostedTotal.Inc()
		recordsPostedTotal.Add(float64(len(group)))
		p.logger.Info().
			Int("batch", i+1).
			Int("batches", len(groups)).
			Int("size", len(group)).
			Int("posted", posted).
			Int("total", len(records)).
			Str("ack", ack.Message).
			Msg("Batch delivered")
	}

	return posted, nil
}
