package scorer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// ModelNames are the classifiers the ensemble was trained with. All four must
// load or the session refuses to start: an N-1 ensemble has a different score
// distribution than the one that was validated.
var ModelNames = []string{"xgboost", "lightgbm", "catboost", "randomforest"}

// ArtifactError marks a missing or unreadable model artifact. It is fatal for
// the scoring session.
type ArtifactError struct {
	Name string
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("scorer: artifact %q (%s): %v", e.Name, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Scaler is the fitted feature transform shared by every classifier.
// It mirrors a standard scaler: (x - mean) / scale per feature.
type Scaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// Transform scales a raw feature vector in place-for-a-copy fashion.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, eris.Errorf("scorer: feature vector has %d values, scaler fit on %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *Scaler) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return eris.Errorf("scaler mean/scale length mismatch (%d/%d)", len(s.Mean), len(s.Scale))
	}
	if len(s.Features) != 0 && len(s.Features) != len(s.Mean) {
		return eris.Errorf("scaler feature names (%d) do not match mean (%d)", len(s.Features), len(s.Mean))
	}
	return nil
}

// Classifier yields a probability-of-positive-class estimate for a scaled
// feature vector. Implementations are immutable after load.
type Classifier interface {
	ProbaPositive(x []float64) float64
}

// classifierArtifact is the on-disk shape of one exported model. Kind selects
// the parameter set that applies.
type classifierArtifact struct {
	Kind string `json:"kind"` // "linear" or "trees"

	// linear
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`

	// trees
	Output string `json:"output,omitempty"` // "logit" or "probability"
	Trees  []tree `json:"trees,omitempty"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

// treeNode is one node of a decision tree. Leaves carry a value; internal
// nodes route x[Feature] < Threshold to Left, otherwise Right.
type treeNode struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      int      `json:"left"`
	Right     int      `json:"right"`
	Leaf      bool     `json:"leaf"`
	Value     *float64 `json:"value,omitempty"`
}

// linearModel is a logistic regression: sigmoid(w.x + b).
type linearModel struct {
	coef      []float64
	intercept float64
}

func (m *linearModel) ProbaPositive(x []float64) float64 {
	z := m.intercept
	for i, w := range m.coef {
		if i < len(x) {
			z += w * x[i]
		}
	}
	return sigmoid(z)
}

// treeModel is an additive tree ensemble. With logit output the tree sums go
// through a sigmoid (boosted models); with probability output the per-tree
// leaf values are averaged directly (forests).
type treeModel struct {
	trees  []tree
	output string
}

func (m *treeModel) ProbaPositive(x []float64) float64 {
	if len(m.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.eval(x)
	}
	if m.output == "probability" {
		return clamp01(sum / float64(len(m.trees)))
	}
	return sigmoid(sum)
}

func (t tree) eval(x []float64) float64 {
	// A well-formed tree visits each node at most once; the bound keeps a
	// corrupt artifact with cyclic indices from hanging the walk.
	i := 0
	for range t.Nodes {
		if i < 0 || i >= len(t.Nodes) {
			return 0
		}
		n := t.Nodes[i]
		if n.Leaf {
			if n.Value == nil {
				return 0
			}
			return *n.Value
		}
		if n.Feature >= 0 && n.Feature < len(x) && x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// loadScaler reads and validates the scaler artifact.
func loadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Name: "scaler", Path: path, Err: err}
	}
	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ArtifactError{Name: "scaler", Path: path, Err: err}
	}
	if err := s.validate(); err != nil {
		return nil, &ArtifactError{Name: "scaler", Path: path, Err: err}
	}
	return &s, nil
}

// loadClassifier reads one exported model artifact.
func loadClassifier(name, path string) (Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Name: name, Path: path, Err: err}
	}
	var art classifierArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, &ArtifactError{Name: name, Path: path, Err: err}
	}
	switch art.Kind {
	case "linear":
		if len(art.Coefficients) == 0 {
			return nil, &ArtifactError{Name: name, Path: path, Err: eris.New("linear model without coefficients")}
		}
		return &linearModel{coef: art.Coefficients, intercept: art.Intercept}, nil
	case "trees":
		if len(art.Trees) == 0 {
			return nil, &ArtifactError{Name: name, Path: path, Err: eris.New("tree model without trees")}
		}
		return &treeModel{trees: art.Trees, output: art.Output}, nil
	default:
		return nil, &ArtifactError{Name: name, Path: path, Err: eris.Errorf("unknown model kind %q", art.Kind)}
	}
}
