// Package catalog defines the data model of the remote animal catalog and
// typed bindings for its three endpoints: the paginated listing, the
// per-animal detail document and the batch home registration.
package catalog

import "encoding/json"

// RecordID identifies one animal in the catalog.
type RecordID int64

// ListingItem is one compact row of the paginated listing. It only carries
// identity; the full document comes from the detail endpoint.
type ListingItem struct {
	ID     RecordID        `json:"id"`
	Name   string          `json:"name"`
	BornAt json.RawMessage `json:"born_at,omitempty"`
}

// ListingPage is one page of the listing. TotalPages from the first page is
// authoritative for the whole run.
type ListingPage struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Items      []ListingItem `json:"items"`
}

// RawDetail is the detail document exactly as the service returns it. The
// friends and born_at fields arrive in several shapes, so they are kept as
// raw JSON until normalization.
type RawDetail struct {
	ID      RecordID        `json:"id"`
	Name    string          `json:"name"`
	Friends json.RawMessage `json:"friends,omitempty"`
	BornAt  json.RawMessage `json:"born_at,omitempty"`
}

// NormalizedRecord is the canonical shape posted home. Friends is always a
// JSON array, never null, and BornAt is either an RFC 3339 UTC timestamp or
// JSON null.
type NormalizedRecord struct {
	ID      RecordID `json:"id"`
	Name    string   `json:"name"`
	Friends []string `json:"friends"`
	BornAt  *string  `json:"born_at"`
}

// BatchAck is the destination's confirmation for one posted batch.
type BatchAck struct {
	Message string `json:"message"`
}
