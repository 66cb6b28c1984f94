package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_ImplementsRecorder(t *testing.T) {
	var _ Recorder = (*Collector)(nil)
	var _ Recorder = Nop{}
}

func TestCollector_RecordIngest(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordIngest(OutcomeOK)
	c.RecordIngest(OutcomeOK)
	c.RecordIngest(OutcomeStorageError)

	if got := testutil.ToFloat64(c.ingest.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ingest.WithLabelValues(OutcomeStorageError)); got != 1 {
		t.Errorf("storage_error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ingest.WithLabelValues(OutcomePersistenceError)); got != 0 {
		t.Errorf("persistence_error = %v, want 0", got)
	}
}

func TestCollector_RecordBlobBytesIgnoresUnknownSize(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordBlobBytes(10)
	c.RecordBlobBytes(-1)

	if got := testutil.ToFloat64(c.blobBytes); got != 10 {
		t.Errorf("blob bytes = %v, want 10", got)
	}
}

func TestCollector_Failures(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordListFailure()
	c.RecordPublishFailure()
	c.RecordPublishFailure()

	if got := testutil.ToFloat64(c.listFailures); got != 1 {
		t.Errorf("list failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.publishFailures); got != 2 {
		t.Errorf("publish failures = %v, want 2", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordIngest(OutcomeOK)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `roster_ingest_total{outcome="ok"} 1`) {
		t.Fatalf("expected ingest counter in output:\n%s", body)
	}
}
