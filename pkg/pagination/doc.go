// Package pagination collects the full set of record ids from the paginated
// catalog listing.
//
// The total_pages field of the first page is trusted as the page count for
// the whole run, and the remaining pages are fetched strictly one after the
// other. The collected ids come back in listing order, duplicates included.
//
// Usage:
//
//	agg, err := pagination.NewAggregator(api)
//	if err != nil {
//		return err
//	}
//	ids, err := agg.CollectIDs(ctx)
//	if err != nil {
//		return err
//	}
package pagination
