package report

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/metrics"
)

func TestRenderProducesChartsPerMetric(t *testing.T) {
	summaries := []metrics.GroupSummary{
		{Key: metrics.GroupKey{Scenario: "highway", Composition: "selfish"}, Runs: 5, AvgSpeedMean: 21.0, CollisionsMean: 2.4},
		{Key: metrics.GroupKey{Scenario: "highway", Composition: "cooperative"}, Runs: 5, AvgSpeedMean: 23.5, CollisionsMean: 0.8},
		{Key: metrics.GroupKey{Scenario: "merge", Composition: "selfish"}, Runs: 5, MergeSuccessMean: 0.4},
		{Key: metrics.GroupKey{Scenario: "merge", Composition: "cooperative"}, Runs: 5, MergeSuccessMean: 0.9},
	}

	var sb strings.Builder
	if err := Render(&sb, summaries); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := sb.String()
	for _, title := range []string{
		"Average Speed", "Collisions per Run", "Close TTC Events",
		"Acceleration Std", "Merge Success Rate",
	} {
		if !strings.Contains(html, title) {
			t.Errorf("report missing chart %q", title)
		}
	}
	for _, name := range []string{"selfish", "cooperative", "highway", "merge"} {
		if !strings.Contains(html, name) {
			t.Errorf("report missing label %q", name)
		}
	}
}

func TestRenderEmptyStudy(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, nil); err != nil {
		t.Fatalf("Render on empty study: %v", err)
	}
	if sb.Len() == 0 {
		t.Fatal("empty study rendered nothing at all")
	}
}
