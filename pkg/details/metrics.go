package details

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detailsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_details_fetched_total",
		Help: "Detail documents fetched and normalized",
	})

	detailGroupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_detail_groups_total",
		Help: "Progress groups completed by the detail stage",
	})
)
