// Package metrics provides the centralized Prometheus metrics reference for
// the loader. All metrics are defined in their respective packages (client,
// pagination, details, batch, loader) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the loader.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - etl_requests_total{endpoint, status} (Counter): Request attempts by endpoint and outcome status
//   - etl_request_duration_seconds{endpoint} (Histogram): Wall time of a single attempt
//   - etl_retries_total{class} (Counter): Retried attempts by fault class (server, timeout)
//   - etl_retry_backoff_seconds{class} (Histogram): Backoff delay waited between attempts
//   - etl_retry_exhausted_total{endpoint} (Counter): Requests abandoned after the attempt ceiling
//
// Listing Metrics (pkg/pagination):
//   - etl_pages_fetched_total (Counter): Listing pages collected
//   - etl_records_listed_total (Counter): Record ids collected from the listing
//
// Detail Metrics (pkg/details):
//   - etl_details_fetched_total (Counter): Detail documents fetched and normalized
//   - etl_detail_groups_total (Counter): Progress groups completed by the detail stage
//
// Delivery Metrics (pkg/batch):
//   - etl_batches_posted_total (Counter): Batches acknowledged by the destination
//   - etl_records_posted_total (Counter): Records acknowledged by the destination
//
// Pipeline Metrics (pkg/loader):
//   - etl_stage_duration_seconds{stage} (Histogram): Wall time per stage (list, details, post)
//
// Example Prometheus Queries:
//
//   # Retry Pressure
//   rate(etl_retries_total[5m])
//
//   # Share Of Attempts That Hit Chaos
//   sum(rate(etl_requests_total{status=~"5.."}[5m])) /
//   sum(rate(etl_requests_total[5m]))
//
//   # P95 Attempt Latency
//   histogram_quantile(0.95, rate(etl_request_duration_seconds_bucket[5m]))
//
//   # Transfer Progress
//   etl_records_posted_total / etl_records_listed_total
