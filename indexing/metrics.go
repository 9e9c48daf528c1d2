package indexing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cyclesTotal counts indexing cycles by operation and outcome.
	// Labels: operation (index, reindex), status (ok, error)
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "cycles_total",
		Help:      "Indexing cycles by operation and outcome",
	}, []string{"operation", "status"})

	// cycleDurationSeconds measures whole cycles, scan through commit.
	cycleDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of indexing cycles",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"operation"})

	// filesTotal counts reconciled files by change kind.
	// Labels: change (added, modified, deleted, excluded)
	filesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "files_total",
		Help:      "Files reconciled by change kind",
	}, []string{"collection", "change"})

	// chunksTotal counts chunks embedded and stored.
	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "chunks_total",
		Help:      "Chunks embedded and stored",
	}, []string{"collection"})

	// batchesTotal counts embedding batches by outcome.
	// Labels: status (ok, embed_error, store_error)
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "batches_total",
		Help:      "Embedding batches by outcome",
	}, []string{"collection", "status"})

	// embedDurationSeconds measures single EmbedTexts calls.
	embedDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codeindex",
		Subsystem: "indexing",
		Name:      "embed_duration_seconds",
		Help:      "Duration of batch embedding requests",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	// searchesTotal counts queries by outcome.
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindex",
		Subsystem: "search",
		Name:      "queries_total",
		Help:      "Search queries by outcome",
	}, []string{"status"})

	// searchDurationSeconds measures queries end to end.
	searchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codeindex",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Duration of search queries including query embedding",
		Buckets:   prometheus.DefBuckets,
	})
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func observeCycle(operation string, took time.Duration, err error) {
	cyclesTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	cycleDurationSeconds.WithLabelValues(operation).Observe(took.Seconds())
}

func observeFiles(collection string, stats *Stats) {
	filesTotal.WithLabelValues(collection, "added").Add(float64(stats.Added))
	filesTotal.WithLabelValues(collection, "modified").Add(float64(stats.Modified))
	filesTotal.WithLabelValues(collection, "deleted").Add(float64(stats.Deleted))
	filesTotal.WithLabelValues(collection, "excluded").Add(float64(stats.Excluded))
}

func observeSearch(collection string, took time.Duration, err error) {
	searchesTotal.WithLabelValues(statusLabel(err)).Inc()
	searchDurationSeconds.Observe(took.Seconds())
}
