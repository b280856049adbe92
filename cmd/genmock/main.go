// Command genmock writes a deterministic bundle of model artifacts and
// reference datasets so the service can run locally without the offline
// training job.
//
// Usage:
//
//	go run ./cmd/genmock -model-dir models -data-dir data
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/couchcryptid/grid-eta-service/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.DefaultOptions()
	modelDir := flag.String("model-dir", "models", "output directory for model artifacts")
	dataDir := flag.String("data-dir", "data", "output directory for reference datasets")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	records := flag.Int("records", defaults.Records, "number of fault history records")
	trees := flag.Int("trees", defaults.Trees, "trees per forest")
	depth := flag.Int("depth", defaults.Depth, "depth of each tree")
	flag.Parse()

	if *records < 1 || *trees < 1 || *depth < 1 || *depth > 12 {
		flag.Usage()
		return fmt.Errorf("records and trees must be positive, depth must be 1-12")
	}

	b, err := mockdata.Generate(mockdata.Options{Seed: *seed, Records: *records, Trees: *trees, Depth: *depth})
	if err != nil {
		return fmt.Errorf("generating bundle: %w", err)
	}
	if err := b.Write(*modelDir, *dataDir); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}

	log.Printf("wrote model artifacts: %s (%d trees per forest, depth %d)", *modelDir, *trees, *depth)
	log.Printf("wrote datasets: %s (%d centers, %d fault records)", *dataDir, len(b.Centers), len(b.Faults))
	printStats(b)
	return nil
}

func printStats(b mockdata.Bundle) {
	byStation := map[string]int{}
	byFault := map[string]int{}
	for _, f := range b.Faults {
		byStation[f.StationID]++
		byFault[f.FaultType]++
	}

	fmt.Println("\n=== Fault History ===")
	printCounts("station", byStation)
	printCounts("fault type", byFault)
}

func printCounts(label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("  by %s:\n", label)
	for _, k := range keys {
		fmt.Printf("    %-16s %4d\n", k, counts[k])
	}
}
