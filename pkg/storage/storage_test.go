package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testGraphStorage creates a persistent GraphStorage in a temp dir
func testGraphStorage(t *testing.T, config ...StorageConfig) *GraphStorage {
	t.Helper()

	var cfg StorageConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}

	gs, err := NewGraphStorageWithConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to create GraphStorage: %v", err)
	}
	t.Cleanup(func() {
		if err := gs.Close(); err != nil {
			t.Logf("Warning: Close() failed during cleanup: %v", err)
		}
	})
	return gs
}

func diseaseProps(id int64, name string) map[string]Value {
	return map[string]Value{
		"id":   IntValue(id),
		"name": StringValue(name),
		"type": StringValue("disease"),
	}
}

func TestCreateAndGetNode(t *testing.T) {
	gs := testGraphStorage(t)

	node, err := gs.CreateNode([]string{"Disease"}, diseaseProps(1, "Influenza"))
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}

	got, err := gs.GetNode(node.ID)
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if !got.HasLabel("Disease") {
		t.Errorf("Expected Disease label, got %v", got.Labels)
	}
	if name := got.StringProperty("name"); name != "Influenza" {
		t.Errorf("name = %q, want Influenza", name)
	}
	id, err := got.Properties["id"].AsInt()
	if err != nil || id != 1 {
		t.Errorf("id = %d (%v), want 1", id, err)
	}
}

func TestGetNode_NotFound(t *testing.T) {
	gs := testGraphStorage(t)

	_, err := gs.GetNode(42)
	if !IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestCreateUniqueConstraint_Idempotent(t *testing.T) {
	gs := testGraphStorage(t)

	for i := 0; i < 2; i++ {
		if err := gs.CreateUniqueConstraint("Disease", "id"); err != nil {
			t.Fatalf("CreateUniqueConstraint run %d failed: %v", i+1, err)
		}
	}

	constraints := gs.UniqueConstraints()
	if len(constraints) != 1 {
		t.Fatalf("Expected 1 constraint, got %d", len(constraints))
	}
	if constraints[0] != (UniqueConstraint{Label: "Disease", PropertyKey: "id"}) {
		t.Errorf("Unexpected constraint %+v", constraints[0])
	}
}

func TestCreateUniqueConstraint_RejectsExistingDuplicates(t *testing.T) {
	gs := testGraphStorage(t)

	gs.CreateNode([]string{"Disease"}, diseaseProps(1, "a"))
	gs.CreateNode([]string{"Disease"}, diseaseProps(1, "b"))

	err := gs.CreateUniqueConstraint("Disease", "id")
	if !IsConstraintViolation(err) {
		t.Fatalf("Expected constraint violation, got %v", err)
	}
}

func TestCreateNode_UniqueViolation(t *testing.T) {
	gs := testGraphStorage(t)
	if err := gs.CreateUniqueConstraint("Disease", "id"); err != nil {
		t.Fatal(err)
	}

	if _, err := gs.CreateNode([]string{"Disease"}, diseaseProps(7, "a")); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := gs.CreateNode([]string{"Disease"}, diseaseProps(7, "b"))
	if !IsConstraintViolation(err) {
		t.Fatalf("Expected constraint violation, got %v", err)
	}

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *StorageError, got %T", err)
	}
	if se.Field != "Disease.id" {
		t.Errorf("Field = %q, want Disease.id", se.Field)
	}

	// Same id under another label is fine
	if _, err := gs.CreateNode([]string{"Symptom"}, diseaseProps(7, "fever")); err != nil {
		t.Errorf("Symptom with same id should be accepted: %v", err)
	}

	if got := gs.GetStatistics().NodeCount; got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
}

func TestFindNodeByProperty(t *testing.T) {
	gs := testGraphStorage(t)
	gs.CreateNode([]string{"Disease"}, diseaseProps(1, "Influenza"))
	gs.CreateNode([]string{"Disease"}, diseaseProps(2, "Measles"))

	// Scan path
	node, err := gs.FindNodeByProperty("Disease", "id", IntValue(2))
	if err != nil {
		t.Fatalf("scan lookup failed: %v", err)
	}
	if node.StringProperty("name") != "Measles" {
		t.Errorf("scan lookup returned %q", node.StringProperty("name"))
	}

	// Index path
	if err := gs.CreateUniqueConstraint("Disease", "id"); err != nil {
		t.Fatal(err)
	}
	node, err = gs.FindNodeByProperty("Disease", "id", IntValue(1))
	if err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if node.StringProperty("name") != "Influenza" {
		t.Errorf("index lookup returned %q", node.StringProperty("name"))
	}

	if _, err := gs.FindNodeByProperty("Disease", "id", IntValue(99)); !IsNotFound(err) {
		t.Errorf("Expected not found for missing id, got %v", err)
	}
	// String "1" must not match int 1
	if _, err := gs.FindNodeByProperty("Disease", "id", StringValue("1")); !IsNotFound(err) {
		t.Errorf("Expected type-sensitive miss, got %v", err)
	}
}

func TestCreateEdge(t *testing.T) {
	gs := testGraphStorage(t)
	d, _ := gs.CreateNode([]string{"Disease"}, diseaseProps(1, "Influenza"))
	s, _ := gs.CreateNode([]string{"Symptom"}, diseaseProps(1, "Fever"))

	edge, err := gs.CreateEdge(d.ID, s.ID, "HAS_SYMPTOM", nil)
	if err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}

	out, _ := gs.GetOutgoingEdges(d.ID)
	if len(out) != 1 || out[0].ID != edge.ID || out[0].ToNodeID != s.ID {
		t.Errorf("Unexpected outgoing edges: %+v", out)
	}
	in, _ := gs.GetIncomingEdges(s.ID)
	if len(in) != 1 || in[0].FromNodeID != d.ID {
		t.Errorf("Unexpected incoming edges: %+v", in)
	}

	if _, err := gs.CreateEdge(d.ID, 999, "HAS_SYMPTOM", nil); !IsNotFound(err) {
		t.Errorf("Expected not found for missing target, got %v", err)
	}
}

func TestCounts(t *testing.T) {
	gs := testGraphStorage(t)
	d1, _ := gs.CreateNode([]string{"Disease"}, diseaseProps(1, "a"))
	d2, _ := gs.CreateNode([]string{"Disease"}, diseaseProps(2, "b"))
	s1, _ := gs.CreateNode([]string{"Symptom"}, diseaseProps(1, "c"))
	gs.CreateEdge(d1.ID, s1.ID, "HAS_SYMPTOM", nil)
	gs.CreateEdge(d2.ID, s1.ID, "HAS_SYMPTOM", nil)
	gs.CreateEdge(d2.ID, s1.ID, "HAS_SYMPTOM", nil) // duplicates are allowed

	labels := gs.CountNodesByLabel()
	if labels["Disease"] != 2 || labels["Symptom"] != 1 {
		t.Errorf("Unexpected label counts %v", labels)
	}
	types := gs.CountEdgesByType()
	if types["HAS_SYMPTOM"] != 3 {
		t.Errorf("Unexpected type counts %v", types)
	}
	if got := gs.GetAllLabels(); len(got) != 2 || got[0] != "Disease" {
		t.Errorf("GetAllLabels = %v", got)
	}
}

func TestBatch_AllOrNothing(t *testing.T) {
	gs := testGraphStorage(t)
	gs.CreateUniqueConstraint("Disease", "id")

	batch := gs.BeginBatch()
	batch.AddNode([]string{"Disease"}, diseaseProps(1, "a"))
	batch.AddNode([]string{"Disease"}, diseaseProps(2, "b"))
	batch.AddNode([]string{"Disease"}, diseaseProps(1, "c"))

	if err := batch.Commit(); !IsConstraintViolation(err) {
		t.Fatalf("Expected constraint violation, got %v", err)
	}
	if got := gs.GetStatistics().NodeCount; got != 0 {
		t.Fatalf("Failed batch leaked %d nodes", got)
	}

	batch = gs.BeginBatch()
	batch.AddNode([]string{"Disease"}, diseaseProps(1, "a"))
	batch.AddNode([]string{"Disease"}, diseaseProps(2, "b"))
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if batch.Size() != 0 {
		t.Errorf("Committed batch should be empty, has %d ops", batch.Size())
	}
	if got := gs.GetStatistics().NodeCount; got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
}

func TestBatch_EdgeRequiresEndpoints(t *testing.T) {
	gs := testGraphStorage(t)
	d, _ := gs.CreateNode([]string{"Disease"}, diseaseProps(1, "a"))

	batch := gs.BeginBatch()
	batch.AddEdge(d.ID, d.ID+100, "HAS_SYMPTOM", nil)
	if err := batch.Commit(); !IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
	if got := gs.GetStatistics().EdgeCount; got != 0 {
		t.Errorf("EdgeCount = %d, want 0", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "snappy"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := StorageConfig{DataDir: dir, SnapshotOnClose: true, CompressSnapshots: compress}

			gs, err := NewGraphStorageWithConfig(cfg)
			if err != nil {
				t.Fatal(err)
			}
			gs.CreateUniqueConstraint("Disease", "id")
			d, _ := gs.CreateNode([]string{"Disease"}, diseaseProps(1, "Influenza"))
			s, _ := gs.CreateNode([]string{"Symptom"}, diseaseProps(1, "Fever"))
			gs.CreateEdge(d.ID, s.ID, "HAS_SYMPTOM", nil)
			if err := gs.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			want := snapshotFile
			if compress {
				want = compressedSnapshotFile
			}
			if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
				t.Fatalf("snapshot %s missing: %v", want, err)
			}

			reopened := testGraphStorage(t, StorageConfig{DataDir: dir})
			stats := reopened.GetStatistics()
			if stats.NodeCount != 2 || stats.EdgeCount != 1 {
				t.Fatalf("reloaded stats %+v", stats)
			}
			// Constraint survives the reload
			_, err = reopened.CreateNode([]string{"Disease"}, diseaseProps(1, "dup"))
			if !IsConstraintViolation(err) {
				t.Errorf("Expected constraint violation after reload, got %v", err)
			}
			// IDs continue after the restored ones
			n, err := reopened.CreateNode([]string{"Disease"}, diseaseProps(2, "Measles"))
			if err != nil {
				t.Fatal(err)
			}
			if n.ID <= s.ID {
				t.Errorf("new node ID %d reuses restored ID space (last %d)", n.ID, s.ID)
			}
		})
	}
}

func TestClosedStorage(t *testing.T) {
	gs := NewGraphStorage()
	if err := gs.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := gs.CreateNode([]string{"Disease"}, nil); !IsClosed(err) {
		t.Errorf("Expected closed error, got %v", err)
	}
	if err := gs.Snapshot(); !errors.Is(err, ErrNoDataDir) {
		t.Errorf("Expected ErrNoDataDir, got %v", err)
	}
}
