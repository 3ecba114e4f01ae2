package bayes

import (
	"encoding/json"
	"fmt"
	"math"

	"meld/internal/dataset"
	"meld/internal/learner"
)

var (
	_ learner.Learner     = (*Learner)(nil)
	_ learner.Fitted      = (*Fitted)(nil)
	_ learner.Snapshotter = (*Fitted)(nil)
)

// varEpsilon keeps per-feature variances strictly positive.
const varEpsilon = 1e-9

type Option func(*Learner)

func WithVarSmoothing(eps float64) Option {
	return func(l *Learner) {
		l.smoothing = eps
	}
}

// Learner is a Gaussian naive Bayes classifier. The class level set comes
// from the target column, so a model trained on a fold still declares every
// level of the full dataset.
type Learner struct {
	smoothing float64
}

func New(opts ...Option) *Learner {
	l := &Learner{smoothing: varEpsilon}
	for _, f := range opts {
		f(l)
	}
	return l
}

func (l *Learner) Meta() learner.Meta {
	return learner.Meta{
		Prediction: learner.KindProbabilistic,
		Target:     learner.TargetCategorical,
		Input:      learner.InputNumeric,
	}
}

func (l *Learner) Fit(X *dataset.Table, y dataset.Column) (learner.Fitted, error) {
	n := X.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if y.Kind() != dataset.ColumnCategorical {
		return nil, fmt.Errorf("target column is %s, want categorical", y.Kind())
	}
	if y.Len() != n {
		return nil, fmt.Errorf("have %d targets for %d rows", y.Len(), n)
	}

	levels := y.Levels()
	levelIdx := make(map[string]int, len(levels))
	for i, lv := range levels {
		levelIdx[lv] = i
	}

	p := X.NumCols()
	counts := make([]int, len(levels))
	means := make([][]float64, len(levels))
	vars := make([][]float64, len(levels))
	for c := range levels {
		means[c] = make([]float64, p)
		vars[c] = make([]float64, p)
	}

	for i, row := range X.Rows() {
		c, ok := levelIdx[y.Label(i)]
		if !ok {
			return nil, fmt.Errorf("label %q is not a declared level", y.Label(i))
		}
		counts[c]++
		for j, v := range row {
			means[c][j] += v
		}
	}
	for c := range levels {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			means[c][j] /= float64(counts[c])
		}
	}
	for i, row := range X.Rows() {
		c := levelIdx[y.Label(i)]
		for j, v := range row {
			d := v - means[c][j]
			vars[c][j] += d * d
		}
	}
	priors := make([]float64, len(levels))
	for c := range levels {
		priors[c] = float64(counts[c]) / float64(n)
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			vars[c][j] = vars[c][j]/float64(counts[c]) + l.smoothing
		}
	}

	return &Fitted{Levels: levels, Priors: priors, Means: means, Vars: vars}, nil
}

type Fitted struct {
	Levels []string    `json:"levels"`
	Priors []float64   `json:"priors"`
	Means  [][]float64 `json:"means"`
	Vars   [][]float64 `json:"vars"`
}

func (f *Fitted) Predict(X *dataset.Table) (learner.Prediction, error) {
	items := make([]learner.Distribution, X.NumRows())
	for i, row := range X.Rows() {
		probs, err := f.posterior(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		items[i] = learner.Distribution{Probs: probs}
	}
	return learner.Distributions{Levels: f.Levels, Items: items}, nil
}

func (f *Fitted) posterior(row dataset.Vector) ([]float64, error) {
	logp := make([]float64, len(f.Levels))
	max := math.Inf(-1)
	for c := range f.Levels {
		if f.Priors[c] == 0 {
			logp[c] = math.Inf(-1)
			continue
		}
		if len(row) != len(f.Means[c]) {
			return nil, fmt.Errorf("have %d features, model has %d", len(row), len(f.Means[c]))
		}
		lp := math.Log(f.Priors[c])
		for j, v := range row {
			d := v - f.Means[c][j]
			lp -= 0.5*math.Log(2*math.Pi*f.Vars[c][j]) + d*d/(2*f.Vars[c][j])
		}
		logp[c] = lp
		if lp > max {
			max = lp
		}
	}

	probs := make([]float64, len(f.Levels))
	var sum float64
	for c := range probs {
		if math.IsInf(logp[c], -1) {
			continue
		}
		probs[c] = math.Exp(logp[c] - max)
		sum += probs[c]
	}
	if sum == 0 {
		return nil, fmt.Errorf("no class has positive probability")
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}

func (f *Fitted) Snapshot() ([]byte, error) {
	return json.Marshal(f)
}

func Restore(data []byte) (learner.Fitted, error) {
	var f Fitted
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("restore bayes model: %w", err)
	}
	return &f, nil
}
