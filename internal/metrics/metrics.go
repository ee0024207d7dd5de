package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeStale = "stale"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "block_manifests_cache_lookups_total",
			Help: "Manifest cache lookups by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "block_manifests_rebuild_duration_seconds",
			Help:    "Duration of manifest cache rebuilds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	ManifestsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "block_manifests_manifests_skipped_total",
			Help: "Manifests skipped during rebuild because they could not be read or parsed",
		},
		[]string{"kind"},
	)

	StylesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "block_manifests_styles_emitted_total",
			Help: "Responsive style outputs by emission strategy",
		},
		[]string{"strategy"},
	)
)

func RecordLookup(tier string, outcome string) {
	CacheLookups.WithLabelValues(tier, outcome).Inc()
}

func RecordSkipped(kind string) {
	ManifestsSkipped.WithLabelValues(kind).Inc()
}

func RecordStyle(strategy string) {
	StylesEmitted.WithLabelValues(strategy).Inc()
}
