// Package metrics provides observability for the specification module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks specification mutation counts, the listing critical path,
// and cache effectiveness.
type Metrics struct {
	SpecificationsCreated prometheus.Counter
	SpecificationsDeleted prometheus.Counter
	ListDuration          prometheus.Histogram
	GetDuration           prometheus.Histogram
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
}

// New creates a Metrics instance with all specification module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		SpecificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "specregistry_specifications_created_total",
			Help: "Total number of specifications registered",
		}),
		SpecificationsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "specregistry_specifications_deleted_total",
			Help: "Total number of specifications deleted",
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "specregistry_list_duration_seconds",
			Help:    "Duration of specification listing queries (public critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GetDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "specregistry_get_duration_seconds",
			Help:    "Duration of single-specification reads with child pages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "specregistry_listing_cache_hits_total",
			Help: "Listing responses served from the cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "specregistry_listing_cache_misses_total",
			Help: "Listing requests that fell through to the database",
		}),
	}
}

// IncrementCreated records a successful specification registration.
func (m *Metrics) IncrementCreated() {
	m.SpecificationsCreated.Inc()
}

// IncrementDeleted records a successful specification deletion.
func (m *Metrics) IncrementDeleted() {
	m.SpecificationsDeleted.Inc()
}

// ObserveList records the duration of a listing query. Call with time.Now()
// taken at the start of the operation.
func (m *Metrics) ObserveList(start time.Time) {
	m.ListDuration.Observe(time.Since(start).Seconds())
}

// ObserveGet records the duration of a single-specification read.
func (m *Metrics) ObserveGet(start time.Time) {
	m.GetDuration.Observe(time.Since(start).Seconds())
}

// IncrementCacheHit records a listing served from the cache.
func (m *Metrics) IncrementCacheHit() {
	m.CacheHits.Inc()
}

// IncrementCacheMiss records a listing that fell through to the database.
func (m *Metrics) IncrementCacheMiss() {
	m.CacheMisses.Inc()
}
