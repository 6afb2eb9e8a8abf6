package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"cardiopredict/internal/patient"
)

// ForestSchema is the tag every native artifact must carry. Bumping the
// layout means bumping this tag; the loader refuses anything else.
const ForestSchema = "cardiopredict.forest.v1"

type forestArtifact struct {
	Schema        string       `json:"schema"`
	Version       string       `json:"version"`
	TrainedAt     time.Time    `json:"trained_at"`
	FeatureNames  []string     `json:"feature_names"`
	Probabilities bool         `json:"probabilities"`
	Trees         []forestTree `json:"trees"`
}

type forestTree struct {
	Nodes []forestNode `json:"nodes"`
}

// forestNode is either a split (feature/threshold/left/right) or a leaf
// carrying class vote counts.
type forestNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Leaf      bool      `json:"leaf,omitempty"`
	Votes     []float64 `json:"votes,omitempty"`
}

// Forest evaluates the native JSON artifact in-process. It is immutable
// after load and safe for concurrent use.
type Forest struct {
	trees        []forestTree
	featureCount int
}

func loadForest(path string) (*Forest, ArtifactInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("read artifact: %w", err)
	}

	var artifact forestArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("decode artifact: %w", err)
	}

	if err := validateForest(&artifact); err != nil {
		return nil, ArtifactInfo{}, err
	}

	info := ArtifactInfo{
		Path:         path,
		Format:       "forest",
		Schema:       artifact.Schema,
		Version:      artifact.Version,
		TrainedAt:    artifact.TrainedAt,
		ProbaCapable: artifact.Probabilities,
	}
	if stat, err := os.Stat(path); err == nil {
		info.ModTime = stat.ModTime()
	}

	forest := &Forest{
		trees:        artifact.Trees,
		featureCount: len(artifact.FeatureNames),
	}
	return forest, info, nil
}

// validateForest rejects artifacts whose schema tag, feature order, or tree
// structure does not match what the serving path was built against.
func validateForest(artifact *forestArtifact) error {
	if artifact.Schema != ForestSchema {
		return fmt.Errorf("artifact schema %q does not match %q", artifact.Schema, ForestSchema)
	}
	if len(artifact.FeatureNames) != patient.NumFeatures {
		return fmt.Errorf("artifact has %d features, expected %d", len(artifact.FeatureNames), patient.NumFeatures)
	}
	for idx, name := range artifact.FeatureNames {
		if name != patient.FeatureNames[idx] {
			return fmt.Errorf("feature %d: artifact has %q, expected %q", idx, name, patient.FeatureNames[idx])
		}
	}
	if len(artifact.Trees) == 0 {
		return fmt.Errorf("artifact contains no trees")
	}

	for ti, tree := range artifact.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Leaf {
				if len(node.Votes) != 2 {
					return fmt.Errorf("tree %d node %d: leaf needs 2 vote counts, has %d", ti, ni, len(node.Votes))
				}
				if node.Votes[0]+node.Votes[1] <= 0 {
					return fmt.Errorf("tree %d node %d: leaf votes must be positive", ti, ni)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= len(artifact.FeatureNames) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, node.Feature)
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
		}
	}
	return nil
}

func (f *Forest) Predict(ctx context.Context, features []float64) (int, error) {
	probs, err := f.eval(features)
	if err != nil {
		return 0, err
	}
	if probs[1] > probs[0] {
		return 1, nil
	}
	return 0, nil
}

func (f *Forest) PredictProba(ctx context.Context, features []float64) ([2]float64, error) {
	return f.eval(features)
}

// eval averages the normalized leaf votes over all trees.
func (f *Forest) eval(features []float64) ([2]float64, error) {
	var zero [2]float64

	if len(features) != f.featureCount {
		return zero, fmt.Errorf("expected %d features, got %d", f.featureCount, len(features))
	}
	for idx, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return zero, fmt.Errorf("feature %d is not finite", idx)
		}
	}

	var acc [2]float64
	for ti := range f.trees {
		votes, err := f.trees[ti].walk(features)
		if err != nil {
			return zero, fmt.Errorf("tree %d: %w", ti, err)
		}
		acc[0] += votes[0]
		acc[1] += votes[1]
	}

	n := float64(len(f.trees))
	return [2]float64{acc[0] / n, acc[1] / n}, nil
}

func (t *forestTree) walk(features []float64) ([2]float64, error) {
	idx := 0
	// A well-formed tree terminates well before visiting every node once;
	// the bound turns a malformed cycle into an error instead of a hang.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := &t.Nodes[idx]
		if node.Leaf {
			total := node.Votes[0] + node.Votes[1]
			return [2]float64{node.Votes[0] / total, node.Votes[1] / total}, nil
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return [2]float64{}, fmt.Errorf("walk exceeded %d steps", len(t.Nodes))
}
