package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/stagegate/internal/replay"
	"github.com/danielpatrickdp/stagegate/internal/safetynet"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every turn, not just mismatches")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	os.Exit(runFixture(*fixturePath, *verbose))
}

// #endregion main

// #region run

func runFixture(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	start, err := f.ToStartState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture start state: %v\n", err)
		return 2
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n", f.Description)
	}

	results := replay.Replay(start, f.ToInteractions(), safetynet.DefaultConfig())

	mismatches := 0
	for i, r := range results {
		line := fmt.Sprintf("%-6s verdict=%-8s stage=%-11s", r.TurnID, r.Verdict, r.Stage)
		if r.OverrideRule != "" {
			line += " override=" + r.OverrideRule
		}

		if i < len(f.ExpectedResults) {
			e := f.ExpectedResults[i]
			ok := string(r.Verdict) == e.Verdict &&
				string(r.Stage) == e.Stage &&
				r.OverrideRule == e.OverrideRule
			if !ok {
				mismatches++
				fmt.Printf("FAIL %s (expected verdict=%s stage=%s override=%q)\n",
					line, e.Verdict, e.Stage, e.OverrideRule)
				continue
			}
		}
		if verbose {
			fmt.Printf("ok   %s\n", line)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\n%d turns: %d advances, %d loops, %d stops, %d overrides — final stage %s\n",
		s.TotalTurns, s.Advances, s.Loops, s.Stops, s.Overrides, s.FinalStage)

	if mismatches > 0 {
		fmt.Fprintf(os.Stderr, "%d turn(s) diverged from expected results\n", mismatches)
		return 1
	}
	return 0
}

// #endregion run
