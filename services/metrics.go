package services

import "github.com/prometheus/client_golang/prometheus"

var wizzRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wizz_records_total",
		Help: "Wizz records written, by outcome",
	},
	[]string{"status"},
)

// Collectors returns the metrics of this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{wizzRecords}
}
