package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.LoadRowsTotal == nil {
		t.Error("LoadRowsTotal not initialized")
	}
	if r.RelationshipsDroppedTotal == nil {
		t.Error("RelationshipsDroppedTotal not initialized")
	}
	if r.GraphNodes == nil {
		t.Error("GraphNodes not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordRows(t *testing.T) {
	r := NewRegistry()

	r.RecordRows("diseases.csv", OutcomeLoaded, 3)
	r.RecordRows("diseases.csv", OutcomeLoaded, 2)
	r.RecordRows("diseases.csv", OutcomeDropped, 0)

	counter, err := r.LoadRowsTotal.GetMetricWithLabelValues("diseases.csv", OutcomeLoaded)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 5 {
		t.Errorf("Counter value = %v, want 5", metric.Counter.GetValue())
	}

	// Zero counts must not create a series
	if n := testutil.CollectAndCount(r.LoadRowsTotal); n != 1 {
		t.Errorf("Expected 1 series, got %d", n)
	}
}

func TestRecordRelationships(t *testing.T) {
	r := NewRegistry()

	r.RecordRelationships("HAS_SYMPTOM", 2, 1)
	r.RecordNodesCreated("Disease", 3)

	if got := testutil.ToFloat64(r.RelationshipsCreatedTotal.WithLabelValues("HAS_SYMPTOM")); got != 2 {
		t.Errorf("created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RelationshipsDroppedTotal.WithLabelValues("HAS_SYMPTOM")); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.NodesCreatedTotal.WithLabelValues("Disease")); got != 3 {
		t.Errorf("nodes = %v, want 3", got)
	}
}

func TestObservePhase(t *testing.T) {
	r := NewRegistry()
	r.ObservePhase("nodes", 150*time.Millisecond)
	r.ObservePhase("nodes", 50*time.Millisecond)

	if n := testutil.CollectAndCount(r.LoadPhaseDuration, "medgraph_load_phase_duration_seconds"); n != 1 {
		t.Errorf("Expected 1 histogram series, got %d", n)
	}
}

func TestSetGraphCounts(t *testing.T) {
	r := NewRegistry()

	r.SetGraphCounts(map[string]int64{"Disease": 3, "Symptom": 2}, map[string]int64{"HAS_SYMPTOM": 2})
	r.SetGraphCounts(map[string]int64{"Disease": 4}, nil)

	if got := testutil.ToFloat64(r.GraphNodes.WithLabelValues("Disease")); got != 4 {
		t.Errorf("Disease gauge = %v, want 4", got)
	}
	// Labels absent from the latest counts are removed
	if n := testutil.CollectAndCount(r.GraphNodes); n != 1 {
		t.Errorf("Expected 1 node series, got %d", n)
	}
	if n := testutil.CollectAndCount(r.GraphRelationships); n != 0 {
		t.Errorf("Expected no relationship series, got %d", n)
	}
}

func TestRecordRunAndQuery(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(true)
	r.RecordRun(false)
	r.RecordQuery("symptoms", nil)
	r.RecordQuery("symptoms", io.EOF)

	if got := testutil.ToFloat64(r.LoadRunsTotal.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.GraphQueriesTotal.WithLabelValues("symptoms", "error")); got != 1 {
		t.Errorf("failed queries = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordRows("symptoms.csv", OutcomeLoaded, 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `medgraph_load_rows_total{file="symptoms.csv",outcome="loaded"} 2`) {
		t.Errorf("Unexpected exposition:\n%s", body)
	}
}
