package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"cardiopredict/internal/journal"
)

func main() {
	var (
		dataPath   = flag.String("data", "data", "Journal data directory")
		outputPath = flag.String("output", "scripts/decisions.json", "Output JSON file path")
		days       = flag.Int("days", 30, "Number of days to export (0 for all)")
		outcome    = flag.String("outcome", "", "Filter by outcome: success, error (empty for all)")
	)
	flag.Parse()

	log.Printf("Exporting decisions from %s to %s", *dataPath, *outputPath)
	if *outcome != "" {
		log.Printf("Filtering by outcome: %s", *outcome)
	}

	store, err := journal.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open journal (is the server running?): %v", err)
	}
	defer store.Close()

	start := time.Unix(0, 0)
	if *days > 0 {
		start = time.Now().AddDate(0, 0, -*days)
		log.Printf("Exporting last %d days", *days)
	}

	entries, err := store.Range(start, time.Now())
	if err != nil {
		log.Fatalf("Failed to read journal: %v", err)
	}

	// Newline-delimited JSON for direct pandas/jq consumption.
	outputFile, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer outputFile.Close()

	encoder := json.NewEncoder(outputFile)
	exported := 0
	byRisk := make(map[string]int)
	for _, entry := range entries {
		if *outcome != "" && entry.Outcome != *outcome {
			continue
		}
		if err := encoder.Encode(entry); err != nil {
			log.Fatalf("Failed to write JSON record: %v", err)
		}
		exported++
		if entry.Risk != "" {
			byRisk[entry.Risk]++
		}
	}

	if exported == 0 {
		log.Println("Warning: No decisions found matching criteria")
		return
	}

	log.Printf("Successfully exported %d decisions to %s", exported, *outputPath)
	log.Printf("Time range: %s to %s",
		entries[0].Timestamp.Format("2006-01-02 15:04:05"),
		entries[len(entries)-1].Timestamp.Format("2006-01-02 15:04:05"))
	log.Println("Decisions by risk tier:")
	for tier, count := range byRisk {
		log.Printf("  %s: %d", tier, count)
	}
}
