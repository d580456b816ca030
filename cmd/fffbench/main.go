// Command fffbench benchmarks the search path against a scanned
// project: a fixed table of representative queries run N times each,
// reporting per-query and aggregate throughput, with an optional CPU
// profile.
package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fff-nvim/fff-core"
)

type benchQuery struct {
	name       string
	query      string
	iterations int
}

var benchQueries = []benchQuery{
	{"short_common", "mod", 500},
	{"medium_specific", "controller", 200},
	{"long_rare", "user_authentication", 100},
	{"typo_resistant", "contrlr", 200},
	{"path_like", "src/lib", 150},
	{"single_char", "a", 300},
	{"two_char", "st", 300},
	{"partial_word", "test", 200},
	{"deep_path", "internal/watcher", 100},
	{"extension", ".go", 200},
}

func main() {
	app := &cli.App{
		Name:  "fffbench",
		Usage: "benchmark fuzzy-search throughput against a scanned project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Value: "./big-repo", Usage: "project root to scan and search"},
			&cli.StringFlag{Name: "cpuprofile", Usage: "write a CPU profile to this file"},
			&cli.IntFlag{Name: "max-results", Value: 100},
			&cli.IntFlag{Name: "max-threads", Value: 4},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if path := c.String("cpuprofile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()
	picker, err := fff.Init(c.String("project"))
	if err != nil {
		return fmt.Errorf("init picker: %w", err)
	}
	defer picker.Stop()

	fmt.Fprintf(os.Stderr, "loaded %d files in %.2fs\n\n", len(picker.GetFiles()), time.Since(start).Seconds())
	fmt.Fprintln(os.Stderr, "Query                 | Iterations | Total Time | Avg Time  | Matches")
	fmt.Fprintln(os.Stderr, "----------------------|------------|------------|-----------|--------")

	maxResults := c.Int("max-results")
	maxThreads := c.Int("max-threads")
	globalStart := time.Now()
	totalIterations := 0

	for _, bq := range benchQueries {
		queryStart := time.Now()
		matchCount := 0

		for i := 0; i < bq.iterations; i++ {
			result := picker.FuzzySearch(bq.query, maxResults, maxThreads, "", false)
			matchCount += result.TotalMatched
		}

		elapsed := time.Since(queryStart)
		avg := elapsed / time.Duration(bq.iterations)

		fmt.Fprintf(os.Stderr, "%-21s | %10d | %8.2fs | %7dµs | %d\n",
			bq.name, bq.iterations, elapsed.Seconds(), avg.Microseconds(), matchCount/bq.iterations)

		totalIterations += bq.iterations
	}

	totalTime := time.Since(globalStart)
	fmt.Fprintln(os.Stderr, "\n=== Summary ===")
	fmt.Fprintf(os.Stderr, "Total searches:     %d\n", totalIterations)
	fmt.Fprintf(os.Stderr, "Total time:         %.2fs\n", totalTime.Seconds())
	fmt.Fprintf(os.Stderr, "Average per search: %dµs\n", totalTime.Microseconds()/int64(totalIterations))
	fmt.Fprintf(os.Stderr, "Searches per sec:   %.0f\n", float64(totalIterations)/totalTime.Seconds())

	return nil
}
