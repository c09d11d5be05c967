package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fuel_extractor_"

	ResultSuccess = "success"
	ResultError   = "error"
)

type collectors struct {
	documents  *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	records    prometheus.Counter
	duplicates prometheus.Counter
	unassigned prometheus.Counter
	unparsed   prometheus.Counter
	skipped    prometheus.Counter
}

var (
	registerOnce sync.Once

	// active is nil until Init has registered the collectors.
	active atomic.Pointer[collectors]
)

// Init registers the extraction metrics with the default registry.
// Recording functions are no-ops until Init has been called. Init may run
// concurrently with recording.
func Init() {
	registerOnce.Do(func() {
		c := &collectors{
			documents: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: metricPrefix + "documents_total",
					Help: "Total documents processed by result",
				},
				[]string{"result"},
			),
			latency: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    metricPrefix + "document_latency_seconds",
					Help:    "Document extraction latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"result"},
			),
			records: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: metricPrefix + "records_total",
					Help: "Total fuel records extracted",
				},
			),
			duplicates: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: metricPrefix + "duplicates_total",
					Help: "Total duplicate transactions dropped",
				},
			),
			unassigned: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: metricPrefix + "unassigned_records_total",
					Help: "Total records emitted without a vehicle plate",
				},
			),
			unparsed: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: metricPrefix + "unparsed_values_total",
					Help: "Total liters and amount values kept as unparsed text",
				},
			),
			skipped: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: metricPrefix + "skipped_files_total",
					Help: "Total submitted files skipped because they are not PDFs",
				},
			),
		}

		prometheus.MustRegister(
			c.documents,
			c.latency,
			c.records,
			c.duplicates,
			c.unassigned,
			c.unparsed,
			c.skipped,
		)
		active.Store(c)
	})
}

// DocumentCounts are the per-document counters reported after extraction.
type DocumentCounts struct {
	Records    int
	Duplicates int
	Unassigned int
	Unparsed   int
}

// ObserveDocument records a successful document extraction.
func ObserveDocument(counts DocumentCounts, elapsed time.Duration) {
	c := active.Load()
	if c == nil {
		return
	}
	c.documents.WithLabelValues(ResultSuccess).Inc()
	c.latency.WithLabelValues(ResultSuccess).Observe(elapsed.Seconds())
	c.records.Add(float64(counts.Records))
	c.duplicates.Add(float64(counts.Duplicates))
	c.unassigned.Add(float64(counts.Unassigned))
	c.unparsed.Add(float64(counts.Unparsed))
}

// ObserveFailure records a document that could not be processed.
func ObserveFailure(elapsed time.Duration) {
	c := active.Load()
	if c == nil {
		return
	}
	c.documents.WithLabelValues(ResultError).Inc()
	c.latency.WithLabelValues(ResultError).Observe(elapsed.Seconds())
}

// ObserveSkipped records a file ignored because it is not a PDF.
func ObserveSkipped() {
	c := active.Load()
	if c == nil {
		return
	}
	c.skipped.Inc()
}
