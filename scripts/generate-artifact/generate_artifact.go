package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"cardiopredict/internal/model"
	"cardiopredict/internal/patient"
)

type artifactNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf,omitempty"`
	Votes     []float64 `json:"votes,omitempty"`
}

type artifactTree struct {
	Nodes []artifactNode `json:"nodes"`
}

type artifact struct {
	Schema        string         `json:"schema"`
	Version       string         `json:"version"`
	TrainedAt     time.Time      `json:"trained_at"`
	FeatureNames  []string       `json:"feature_names"`
	Probabilities bool           `json:"probabilities"`
	Trees         []artifactTree `json:"trees"`
}

// split is a clinically plausible cut. riskAbove marks which side of the
// threshold carries the disease-heavy population.
type split struct {
	feature   int
	low, high float64
	riskAbove bool
}

// Feature indices follow patient.FeatureNames.
var splits = []split{
	{0, 45, 62, true},     // age
	{2, 0.5, 2.5, true},   // cp
	{3, 125, 150, true},   // trestbps
	{4, 220, 280, true},   // chol
	{7, 125, 165, false},  // thalach: low peak heart rate indicates risk
	{8, 0.5, 0.5, true},   // exang
	{9, 0.8, 2.2, true},   // oldpeak
	{10, 0.5, 1.5, false}, // slope
	{11, 0.5, 1.5, true},  // ca
	{12, 1.5, 2.5, true},  // thal
}

func main() {
	var (
		outPath = flag.String("out", "models/heart_pipeline.json", "Output artifact path")
		trees   = flag.Int("trees", 25, "Number of trees to generate")
		seed    = flag.Int64("seed", 42, "Random seed")
		version = flag.String("version", time.Now().Format("2006.01.02"), "Artifact version tag")
		proba   = flag.Bool("probabilities", true, "Declare calibrated probability support")
	)
	flag.Parse()

	fmt.Printf("Generating sample forest artifact...\n")
	fmt.Printf("  Output: %s\n", *outPath)
	fmt.Printf("  Trees: %d\n", *trees)
	fmt.Printf("  Seed: %d\n", *seed)

	a := artifact{
		Schema:        model.ForestSchema,
		Version:       *version,
		TrainedAt:     time.Now().UTC(),
		FeatureNames:  patient.FeatureNames,
		Probabilities: *proba,
		Trees:         generateTrees(rand.New(rand.NewSource(*seed)), *trees),
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode artifact: %v", err)
	}
	if dir := filepath.Dir(*outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write artifact: %v", err)
	}

	fmt.Printf("✓ Wrote %d trees (%d bytes) to %s\n", *trees, len(data), *outPath)
	fmt.Printf("  Verify with: go run ./cmd/modelcheck -model %s\n", *outPath)
}

// generateTrees emits depth-2 trees: a root split, two child splits, four
// leaves. Leaf votes lean toward the positive class in proportion to how many
// risk-side branches were taken on the way down.
func generateTrees(rng *rand.Rand, count int) []artifactTree {
	out := make([]artifactTree, 0, count)
	for i := 0; i < count; i++ {
		root := splits[rng.Intn(len(splits))]
		left := splits[rng.Intn(len(splits))]
		right := splits[rng.Intn(len(splits))]

		nodes := []artifactNode{
			{Feature: root.feature, Threshold: draw(rng, root), Left: 1, Right: 2},
			{Feature: left.feature, Threshold: draw(rng, left), Left: 3, Right: 4},
			{Feature: right.feature, Threshold: draw(rng, right), Left: 5, Right: 6},
			leaf(rng, riskBranches(false, root.riskAbove)+riskBranches(false, left.riskAbove)),
			leaf(rng, riskBranches(false, root.riskAbove)+riskBranches(true, left.riskAbove)),
			leaf(rng, riskBranches(true, root.riskAbove)+riskBranches(false, right.riskAbove)),
			leaf(rng, riskBranches(true, root.riskAbove)+riskBranches(true, right.riskAbove)),
		}
		out = append(out, artifactTree{Nodes: nodes})
	}
	return out
}

func draw(rng *rand.Rand, s split) float64 {
	return s.low + rng.Float64()*(s.high-s.low)
}

// riskBranches counts 1 when taking this side of the split lands in its
// disease-heavy population.
func riskBranches(wentRight, riskAbove bool) int {
	if wentRight == riskAbove {
		return 1
	}
	return 0
}

// leaf builds vote counts for a training population of about 60 samples.
// Zero risk branches leans healthy, two leans diseased.
func leaf(rng *rand.Rand, risk int) artifactNode {
	p := 0.15 + 0.35*float64(risk)
	p += (rng.Float64() - 0.5) * 0.1
	if p < 0.05 {
		p = 0.05
	}
	if p > 0.95 {
		p = 0.95
	}

	n := 50 + rng.Intn(20)
	positive := float64(int(float64(n)*p + 0.5))
	if positive < 1 {
		positive = 1
	}
	if positive > float64(n-1) {
		positive = float64(n - 1)
	}
	return artifactNode{Leaf: true, Votes: []float64{float64(n) - positive, positive}}
}
