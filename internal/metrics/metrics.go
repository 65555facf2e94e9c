// Package metrics holds the Prometheus collectors updated by region loading.
// Nothing is registered until Register is called.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Layer label values for DataLoadsTotal.
const (
	LayerBase    = "base"
	LayerOverlay = "overlay"
)

// Outcome label values for MergeRecordsTotal.
const (
	OutcomeAdded      = "added"
	OutcomeOverridden = "overridden"
	OutcomeRemoved    = "removed"
)

var (
	DataLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georegion_data_loads_total",
		Help: "Data files read, by layer",
	}, []string{"layer"})
	MergeRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "georegion_merge_records_total",
		Help: "Overlay records applied, by outcome",
	}, []string{"outcome"})
	RegionsBuiltTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "georegion_regions_built_total",
		Help: "Regions constructed from data records",
	})
	TranslationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "georegion_translation_failures_total",
		Help: "Required translations that could not be resolved",
	})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "georegion_load_duration_ms",
		Help:    "Time to load, merge and build one level of subregions in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		DataLoadsTotal,
		MergeRecordsTotal,
		RegionsBuiltTotal,
		TranslationFailuresTotal,
		LoadDurationMs,
	}
}

// Register adds all collectors to reg. Collectors already registered with
// reg are skipped, so calling it twice is harmless.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
