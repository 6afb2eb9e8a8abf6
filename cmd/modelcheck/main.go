package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cardiopredict/internal/model"
	"cardiopredict/internal/patient"
	"cardiopredict/internal/risk"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		modelPath  = flag.String("model", "models/heart_pipeline.json", "Path or URL of the model artifact")
		recordPath = flag.String("record", "", "JSON file with a patient record to score (default: built-in sample)")
		timeout    = flag.Duration("timeout", 10*time.Second, "Budget for loading and scoring")
		logLevel   = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Load exactly the way the server does, so a check that passes here
	// means the artifact will serve.
	state := model.NewLoader("", *timeout, nil).Load(ctx, *modelPath)
	snap := state.Snapshot()

	fmt.Println("=== Model Check ===")
	fmt.Printf("Artifact:      %s\n", *modelPath)
	fmt.Printf("Status:        %s\n", snap.Availability)
	if snap.Availability != model.Loaded {
		fmt.Printf("Reason:        %s\n", snap.FailureReason())
		os.Exit(1)
	}
	fmt.Printf("Format:        %s\n", snap.Info.Format)
	if snap.Info.Version != "" {
		fmt.Printf("Version:       %s\n", snap.Info.Version)
	}
	if !snap.Info.TrainedAt.IsZero() {
		fmt.Printf("Trained:       %s\n", snap.Info.TrainedAt.Format("2006-01-02"))
	}
	fmt.Printf("Probabilities: %t\n", snap.Info.ProbaCapable)

	rec, err := loadRecord(*recordPath)
	if err != nil {
		log.Fatal().Err(err).Msg("record load failed")
	}
	features, err := rec.Vector()
	if err != nil {
		log.Fatal().Err(err).Msg("record invalid")
	}

	engine := risk.New(state, nil, *timeout)
	decision, err := engine.Decide(ctx, features)
	if err != nil {
		fmt.Printf("Scoring:       FAILED: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Prediction:    %d\n", decision.Label)
	fmt.Printf("Probability:   %.4f\n", decision.Probability)
	fmt.Printf("Risk:          %s\n", decision.Tier)
	fmt.Println("===================")
}

// loadRecord reads a record from the given file, falling back to a fixed
// plausible sample when no file is given.
func loadRecord(path string) (*patient.Record, error) {
	if path == "" {
		return sampleRecord(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	var rec patient.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record file: %w", err)
	}
	return &rec, nil
}

func sampleRecord() *patient.Record {
	f := func(v float64) *float64 { return &v }
	n := func(v int) *int { return &v }
	return &patient.Record{
		Age: f(45), Sex: n(1), Cp: n(0), Trestbps: f(120), Chol: f(200),
		Fbs: n(0), Restecg: n(0), Thalach: f(150), Exang: n(0),
		Oldpeak: f(0), Slope: n(1), Ca: f(0), Thal: n(3),
	}
}
