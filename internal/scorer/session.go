// Package scorer combines a fixed classifier ensemble and a shared feature
// scaler into one 0-100 suspicion percentage per lot.
package scorer

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/zakupwatch/lotscan/internal/model"
)

// Config locates the fitted artifacts.
type Config struct {
	ModelsDir string `yaml:"models_dir" mapstructure:"models_dir"`
}

// Session holds the loaded ensemble. It is immutable after construction and
// safe for concurrent Score calls.
type Session struct {
	scaler *Scaler
	models []namedModel
}

type namedModel struct {
	name string
	c    Classifier
}

// NewSession loads the scaler and every classifier in ModelNames from dir.
// Any missing or corrupt artifact fails the whole session; scoring never runs
// on a partial ensemble.
func NewSession(dir string) (*Session, error) {
	scaler, err := loadScaler(filepath.Join(dir, "scaler.json"))
	if err != nil {
		return nil, err
	}

	models := make([]namedModel, 0, len(ModelNames))
	for _, name := range ModelNames {
		c, err := loadClassifier(name, filepath.Join(dir, name+"_model.json"))
		if err != nil {
			return nil, err
		}
		models = append(models, namedModel{name: name, c: c})
	}

	zap.L().Info("scoring session ready",
		zap.Int("models", len(models)),
		zap.Int("features", len(scaler.Mean)),
	)
	return &Session{scaler: scaler, models: models}, nil
}

// Score transforms each feature row through the shared scaler, queries every
// classifier, and averages the per-model probabilities into a 0-100
// percentage per row, in input order.
func (s *Session) Score(rows []model.FeatureRow) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.scaler.Transform(row.Vector())
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, m := range s.models {
			sum += m.c.ProbaPositive(scaled)
		}
		out[i] = clamp01(sum/float64(len(s.models))) * 100
	}
	return out, nil
}

// ScoreLots scores already-normalized lots and pairs each with its tier.
func (s *Session) ScoreLots(lots []model.Lot) ([]model.ScoredLot, error) {
	rows := make([]model.FeatureRow, len(lots))
	for i, l := range lots {
		rows[i] = model.FeatureRowFromLot(l)
	}
	scores, err := s.Score(rows)
	if err != nil {
		return nil, err
	}
	scored := make([]model.ScoredLot, len(lots))
	for i, l := range lots {
		scored[i] = l.Scored(scores[i])
	}
	return scored, nil
}
