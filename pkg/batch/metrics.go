package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesPostedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_batches_posted_total",
		Help: "Batches acknowledged by the destination",
	})

	recordsPostedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_posted_total",
		Help: "Normalized records acknowledged by the destination",
	})
)
