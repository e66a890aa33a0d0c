package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "etl_stage_duration_seconds",
		Help:    "Wall time per pipeline stage in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
	},
	[]string{"stage"},
)
