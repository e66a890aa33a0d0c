package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_pages_fetched_total",
		Help: "Listing pages collected",
	})

	recordsListedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_listed_total",
		Help: "Record ids collected from the listing",
	})
)
