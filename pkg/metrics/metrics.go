// Package metrics holds the Prometheus collectors of the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger_import"

// Import groups the import pipeline collectors.
type Import struct {
	Gatherer prometheus.Gatherer

	FilesParsed      *prometheus.CounterVec
	ParseFailures    *prometheus.CounterVec
	PreviewRows      prometheus.Histogram
	Conflicts        prometheus.Counter
	Commits          *prometheus.CounterVec
	CommitDuration   prometheus.Histogram
	TransactionsSent *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Import {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Import{
		Gatherer: reg,
		FilesParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Statement files parsed, by file type.",
		}, []string{"file_type"}),
		ParseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Statement files or records that failed to parse, by reason.",
		}, []string{"reason"}),
		PreviewRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preview_rows",
			Help:      "Incoming rows per preview.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_conflicts_total",
			Help:      "Rows that matched more than one account.",
		}),
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commit attempts, by outcome.",
		}, []string{"outcome"}),
		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Time spent writing an import batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		TransactionsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions written by commits, by operation.",
		}, []string{"op"}),
	}
}

// WriteTextfile writes the current values in the node exporter textfile
// format.
func (m *Import) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer)
}
