package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/animals-etl-client/pkg/client"
)

// Endpoints holds the three service paths. Detail must contain the {id}
// placeholder, which is substituted per request and kept intact as the
// metrics label so every detail call lands in one series.
type Endpoints struct {
	List   string `yaml:"list"`
	Detail string `yaml:"detail"`
	Home   string `yaml:"home"`
}

// DefaultEndpoints returns the paths the catalog service exposes.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		List:   "/animals/v1/animals",
		Detail: "/animals/v1/animals/{id}",
		Home:   "/animals/v1/home",
	}
}

// API is the typed binding over the executor. All resilience lives in the
// executor; API only shapes requests and responses.
type API struct {
	client    *client.Client
	endpoints Endpoints
}

// NewAPI validates the endpoint paths and returns a ready API.
func NewAPI(c *client.Client, endpoints Endpoints) (*API, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	if endpoints.List == "" || endpoints.Detail == "" || endpoints.Home == "" {
		return nil, fmt.Errorf("all endpoint paths are required")
	}
	if !strings.Contains(endpoints.Detail, "{id}") {
		return nil, fmt.Errorf("detail path %q must contain the {id} placeholder", endpoints.Detail)
	}
	return &API{client: c, endpoints: endpoints}, nil
}

// ListPage fetches one page of the listing. Page numbering starts at 1.
func (a *API) ListPage(ctx context.Context, page int) (ListingPage, error) {
	var out ListingPage
	query := url.Values{"page": []string{strconv.Itoa(page)}}
	if err := a.client.GetJSON(ctx, a.endpoints.List, query, &out); err != nil {
		return ListingPage{}, fmt.Errorf("list page %d: %w", page, err)
	}
	return out, nil
}

// Detail fetches the full document for one animal.
func (a *API) Detail(ctx context.Context, id RecordID) (RawDetail, error) {
	var out RawDetail
	req := client.Request{
		Method: http.MethodGet,
		Path:   strings.Replace(a.endpoints.Detail, "{id}", strconv.FormatInt(int64(id), 10), 1),
		Label:  a.endpoints.Detail,
	}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return RawDetail{}, fmt.Errorf("detail %d: %w", id, err)
	}
	return out, nil
}

// SubmitBatch posts one batch of normalized records home and returns the
// destination's acknowledgement. Batch size limits are enforced by the
// caller; the service itself rejects more than 100 records per request.
func (a *API) SubmitBatch(ctx context.Context, records []NormalizedRecord) (BatchAck, error) {
	var ack BatchAck
	if err := a.client.PostJSON(ctx, a.endpoints.Home, records, &ack); err != nil {
		return BatchAck{}, fmt.Errorf("submit batch of %d: %w", len(records), err)
	}
	return ack, nil
}
