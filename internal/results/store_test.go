package results

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/metrics"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "study.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateRunAndCommitMetrics(t *testing.T) {
	s := openStore(t)

	rec, err := s.CreateRun("highway", "cooperative", 42, 1000)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if rec.RunID == "" {
		t.Fatal("run id empty")
	}

	m := metrics.RunMetrics{
		AvgSpeed:         24.5,
		SpeedStd:         1.2,
		AccelStd:         0.8,
		TotalCollisions:  1,
		TTCEventCount:    3,
		MinTTC:           0.9,
		AvgTTC:           1.4,
		MergeAttempts:    4,
		MergeSuccessRate: 0.75,
		Steps:            1000,
	}
	if err := s.CommitMetrics(rec.RunID, m); err != nil {
		t.Fatalf("CommitMetrics: %v", err)
	}

	got, err := s.GetMetrics(rec.RunID)
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if got.AvgSpeed != m.AvgSpeed || got.TotalCollisions != m.TotalCollisions || got.MinTTC != m.MinTTC {
		t.Errorf("round trip mismatch: %+v vs %+v", got, m)
	}
}

func TestInfiniteTTCRoundTripsAsNull(t *testing.T) {
	s := openStore(t)
	rec, err := s.CreateRun("highway", "selfish", 1, 100)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	m := metrics.RunMetrics{MinTTC: math.Inf(1), AvgTTC: math.Inf(1)}
	if err := s.CommitMetrics(rec.RunID, m); err != nil {
		t.Fatalf("CommitMetrics: %v", err)
	}
	got, err := s.GetMetrics(rec.RunID)
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if !math.IsInf(got.MinTTC, 1) || !math.IsInf(got.AvgTTC, 1) {
		t.Fatalf("infinite TTC round trip: min=%v avg=%v", got.MinTTC, got.AvgTTC)
	}
}

func TestListRunsMostRecentFirst(t *testing.T) {
	s := openStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.CreateRun("merge", "mixed_0.5", int64(i), 10); err != nil {
			t.Fatalf("CreateRun %d: %v", i, err)
		}
	}
	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want limit of 2", len(runs))
	}
	for _, r := range runs {
		if r.Scenario != "merge" || r.Composition != "mixed_0.5" {
			t.Errorf("unexpected run %+v", r)
		}
	}
}
