package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cardiopredict/internal/patient"
)

const onnxScriptName = "onnx_infer.py"

// probeBudget bounds the load-time inference that verifies an ONNX artifact
// actually accepts the serving feature vector.
const probeBudget = 10 * time.Second

// bridge scores ONNX artifacts through a Python subprocess speaking JSON
// over stdin/stdout. One process per call keeps the runtime state out of
// the serving process at the cost of spawn latency.
type bridge struct {
	modelPath  string
	pythonPath string
	scriptPath string
}

type bridgeRequest struct {
	Features []float64 `json:"features"`
}

type bridgeResponse struct {
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func loadBridge(ctx context.Context, path string) (*bridge, ArtifactInfo, error) {
	python, err := findPython()
	if err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("python runtime: %w", err)
	}
	script, err := ensureScript()
	if err != nil {
		return nil, ArtifactInfo{}, err
	}

	b := &bridge{
		modelPath:  path,
		pythonPath: python,
		scriptPath: script,
	}

	// Probe with the canonical feature vector so a wrong-shaped or corrupt
	// artifact fails at load instead of on the first request.
	probeCtx, cancel := context.WithTimeout(ctx, probeBudget)
	defer cancel()
	resp, err := b.infer(probeCtx, probeVector())
	if err != nil {
		return nil, ArtifactInfo{}, fmt.Errorf("artifact probe: %w", err)
	}
	if resp.Prediction != 0 && resp.Prediction != 1 {
		return nil, ArtifactInfo{}, fmt.Errorf("artifact probe: prediction %d outside {0, 1}", resp.Prediction)
	}

	info := ArtifactInfo{
		Path:         path,
		Format:       "onnx",
		ProbaCapable: probaShapeOK(resp.Probabilities),
	}
	if stat, err := os.Stat(path); err == nil {
		info.ModTime = stat.ModTime()
	}
	return b, info, nil
}

func (b *bridge) Predict(ctx context.Context, features []float64) (int, error) {
	if len(features) != patient.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", patient.NumFeatures, len(features))
	}
	resp, err := b.infer(ctx, features)
	if err != nil {
		return 0, err
	}
	return resp.Prediction, nil
}

func (b *bridge) PredictProba(ctx context.Context, features []float64) ([2]float64, error) {
	var zero [2]float64

	if len(features) != patient.NumFeatures {
		return zero, fmt.Errorf("expected %d features, got %d", patient.NumFeatures, len(features))
	}
	resp, err := b.infer(ctx, features)
	if err != nil {
		return zero, err
	}
	if !probaShapeOK(resp.Probabilities) {
		return zero, fmt.Errorf("model returned %d probabilities, expected 2", len(resp.Probabilities))
	}
	return [2]float64{resp.Probabilities[0], resp.Probabilities[1]}, nil
}

func (b *bridge) infer(ctx context.Context, features []float64) (*bridgeResponse, error) {
	payload, err := json.Marshal(bridgeRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.pythonPath, b.scriptPath, b.modelPath)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("inference subprocess: %w", ctx.Err())
		}
		return nil, fmt.Errorf("inference subprocess: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	var resp bridgeResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("inference: %s", resp.Error)
	}
	return &resp, nil
}

// probaShapeOK reports whether the subprocess returned a usable binary
// probability pair. Artifacts exported without a probability output leave
// the slice empty and the caller falls back to the bare label.
func probaShapeOK(probs []float64) bool {
	if len(probs) != 2 {
		return false
	}
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return false
		}
	}
	return true
}

// probeVector is a known-good patient encoding used only to exercise the
// artifact at load time.
func probeVector() []float64 {
	return []float64{45, 1, 0, 120, 200, 0, 0, 150, 0, 0.0, 1, 0, 3}
}

// findPython locates an interpreter with onnxruntime importable, preferring
// an active virtualenv over whatever is on PATH.
func findPython() (string, error) {
	var candidates []string
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		candidates = append(candidates,
			filepath.Join(venv, "bin", "python"),
			filepath.Join(venv, "bin", "python3"),
		)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, p)
		}
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := exec.Command(candidate, "-c", "import onnxruntime").Run(); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no interpreter with onnxruntime found (%d candidates checked)", len(candidates))
}

// ensureScript materializes the embedded inference script in the temp dir.
// Rewriting on every load keeps it current across binary upgrades.
func ensureScript() (string, error) {
	path := filepath.Join(os.TempDir(), "cardiopredict-"+onnxScriptName)
	if err := os.WriteFile(path, []byte(onnxScript), 0o755); err != nil {
		return "", fmt.Errorf("write inference script: %w", err)
	}
	return path, nil
}

const onnxScript = `#!/usr/bin/env python3
"""Score one feature vector against an ONNX model.

Reads {"features": [...]} from stdin, writes {"prediction": int,
"probabilities": [p0, p1]} to stdout. The probabilities key is omitted
when the model graph has no probability output.
"""
import json
import sys

import numpy as np
import onnxruntime as ort


def main():
    if len(sys.argv) != 2:
        print(json.dumps({"error": "usage: onnx_infer.py MODEL_PATH"}))
        return 1
    try:
        request = json.load(sys.stdin)
        features = request["features"]
        session = ort.InferenceSession(sys.argv[1], providers=["CPUExecutionProvider"])
        name = session.get_inputs()[0].name
        arr = np.array([features], dtype=np.float32)
        outputs = session.run(None, {name: arr})
        result = {"prediction": int(np.asarray(outputs[0]).reshape(-1)[0])}
        if len(outputs) > 1:
            probs = outputs[1]
            if isinstance(probs, list):
                pair = probs[0]
                result["probabilities"] = [float(pair.get(0, 0.0)), float(pair.get(1, 0.0))]
            else:
                flat = np.asarray(probs, dtype=np.float64).reshape(-1)
                if flat.size == 2:
                    result["probabilities"] = [float(flat[0]), float(flat[1])]
        print(json.dumps(result))
        return 0
    except Exception as exc:
        print(json.dumps({"error": str(exc)}))
        return 1


if __name__ == "__main__":
    sys.exit(main())
`
