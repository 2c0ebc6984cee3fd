package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to recorded episode JSON")
	diffOnly := flag.Bool("diff-only", false, "print only diverging steps")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/episode.json [--diff-only]")
		os.Exit(2)
	}

	os.Exit(runFixtureMode(*fixturePath, *diffOnly))
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string, diffOnly bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n", f.Description)
	}
	if len(f.Laws) > 0 {
		fmt.Printf("Laws: %s\n", strings.Join(f.Laws, ", "))
	}
	return printComparison(results, diffOnly)
}

// #endregion fixture-mode

// #region output

func printComparison(results []replay.StepResult, diffOnly bool) int {
	fmt.Printf("%-6s| %-24s| %-24s| %s\n", "Step", "Recorded", "Replayed", "Match")
	fmt.Println(strings.Repeat("-", 66))

	for _, r := range results {
		if diffOnly && r.Match {
			continue
		}
		status := "OK"
		if !r.Match {
			status = "DIFF"
		}
		fmt.Printf("%-6d| %-24s| %-24s| %s\n",
			r.Step,
			decision(r.WantAction, r.WantIntent, r.WantAccel),
			decision(r.GotAction, r.GotIntent, r.GotAccel),
			status)
	}

	s := replay.Summarize(results)
	fmt.Printf("Summary: %d total, %d match, %d diverge\n", s.TotalSteps, s.Matches, s.Mismatches)
	if s.Mismatches > 0 {
		return 1
	}
	return 0
}

func decision(act, intent string, accel float64) string {
	if intent != "" && intent != "none" {
		return fmt.Sprintf("%s/%s (%+.3f)", act, intent, accel)
	}
	return fmt.Sprintf("%s (%+.3f)", act, accel)
}

// #endregion output
