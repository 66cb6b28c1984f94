// Package metrics collects and exposes Prometheus metrics for ingestion and listing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcome labels.
const (
	OutcomeOK               = "ok"
	OutcomeStorageError     = "storage_error"
	OutcomePersistenceError = "persistence_error"
)

// Recorder is the metrics interface used by the services layer.
type Recorder interface {
	RecordIngest(outcome string)
	RecordBlobBytes(n int64)
	RecordListFailure()
	RecordPublishFailure()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	ingest          *prometheus.CounterVec
	blobBytes       prometheus.Counter
	listFailures    prometheus.Counter
	publishFailures prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_ingest_total",
			Help: "User submissions processed, by outcome.",
		}, []string{"outcome"}),
		blobBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_blob_bytes_total",
			Help: "Bytes of uploaded photos written to blob storage.",
		}),
		listFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_list_failures_total",
			Help: "User listings that fell back to an empty result.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_event_publish_failures_total",
			Help: "user.created events that could not be published.",
		}),
	}

	reg.MustRegister(
		c.ingest,
		c.blobBytes,
		c.listFailures,
		c.publishFailures,
	)
	return c
}

func (c *Collector) RecordIngest(outcome string) {
	c.ingest.WithLabelValues(outcome).Inc()
}

// RecordBlobBytes ignores unknown (negative) sizes.
func (c *Collector) RecordBlobBytes(n int64) {
	if n > 0 {
		c.blobBytes.Add(float64(n))
	}
}

func (c *Collector) RecordListFailure() {
	c.listFailures.Inc()
}

func (c *Collector) RecordPublishFailure() {
	c.publishFailures.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordIngest(string)   {}
func (Nop) RecordBlobBytes(int64) {}
func (Nop) RecordListFailure()    {}
func (Nop) RecordPublishFailure() {}
