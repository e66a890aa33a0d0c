package pagination

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

// progressInterval controls how often a page-level Info line is emitted
// while walking a long listing.
const progressInterval = 50

// PageLister fetches one page of the catalog listing. *catalog.API
// satisfies it; tests substitute a fake.
type PageLister interface {
	ListPage(ctx context.Context, page int) (catalog.ListingPage, error)
}

// Aggregator walks the listing page by page and collects every record id in
// listing order.
type Aggregator struct {
	lister PageLister
	logger zerolog.Logger
}

// NewAggregator returns an Aggregator over the given lister.
func NewAggregator(lister PageLister) (*Aggregator, error) {
	if lister == nil {
		return nil, fmt.Errorf("lister is required")
	}
	return &Aggregator{
		lister: lister,
		logger: logging.NewLogger("pagination"),
	}, nil
}

// CollectIDs fetches page 1, takes its total_pages as authoritative, then
// walks pages 2..total_pages in sequence. The first failed page aborts the
// walk. Ids are returned exactly as listed, duplicates included.
func (a *Aggregator) CollectIDs(ctx context.Context) ([]catalog.RecordID, error) {
	first, err := a.lister.ListPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("listing page 1: %w", err)
	}
	totalPages := first.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	ids := make([]catalog.RecordID, 0, len(first.Items)*totalPages)
	ids = a.appendPage(ids, first, totalPages)

	for page := 2; page <= totalPages; page++ {
		p, err := a.lister.ListPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		ids = a.appendPage(ids, p, totalPages)
		if page%progressInterval == 0 {
			a.logger.Info().
				Int("page", page).
				Int("pages", totalPages).
				Int("ids", len(ids)).
				Msg("Listing progress")
		}
	}

	recordsListedTotal.Add(float64(len(ids)))
	a.logger.Info().
		Int("pages", totalPages).
		Int("ids", len(ids)).
		Msg("Listing complete")
	return ids, nil
}

func (a *Aggregator) appendPage(ids []catalog.RecordID, p catalog.ListingPage, totalPages int) []catalog.RecordID {
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	pagesFetchedTotal.Inc()
	a.logger.Debug().
		Int("page", p.Page).
		Int("pages", totalPages).
		Int("items", len(p.Items)).
		Int("ids", len(ids)).
		Msg("Listing page collected")
	return ids
}
