// Command latency-report plots the execution-time summaries navmodeld records.
//
// Usage:
//
//	go run ./cmd/tools/latency-report [-db /data/navmodeld/latency.db] [-out latency.png] [-limit 500]
//
// A text table of the summaries is printed alongside the plot.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/navmodel/internal/config"
	"github.com/banshee-data/navmodel/internal/db"
)

func main() {
	dbPath := flag.String("db", config.Default().GetStatsDB(), "Path to the latency database")
	out := flag.String("out", "latency.png", "Output PNG path")
	limit := flag.Int("limit", 500, "Number of most recent summaries to plot (0 for all)")
	quiet := flag.Bool("quiet", false, "Skip the text table")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		log.Fatalf("Latency database %s: %v", *dbPath, err)
	}
	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open latency database: %v", err)
	}
	defer store.Close()

	summaries, err := store.LatencySummaries(*limit)
	if err != nil {
		log.Fatalf("Failed to read summaries: %v", err)
	}
	if len(summaries) == 0 {
		log.Printf("No summaries in %s", *dbPath)
		return
	}

	if !*quiet {
		writeTable(os.Stdout, summaries)
	}
	if err := plotSummaries(summaries, *out); err != nil {
		log.Fatalf("Failed to plot: %v", err)
	}
	log.Printf("Wrote %d summaries to %s", len(summaries), *out)
}
