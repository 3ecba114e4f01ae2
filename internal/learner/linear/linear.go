package linear

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

type Option func(*Learner)

// WithRidge adds l2 regularization, which also keeps the normal equations
// solvable on collinear features.
func WithRidge(lambda float64) Option {
	return func(l *Learner) {
		l.ridge = lambda
	}
}

// Learner is a least-squares regressor solved in closed form via the normal
// equations.
type Learner struct {
	ridge float64
}

func New(opts ...Option) *Learner {
	l := &Learner{}
	for _, f := range opts {
		f(l)
	}
	return l
}

func (l *Learner) Meta() learner.Meta {
	return learner.Meta{
		Prediction: learner.KindDeterministic,
		Target:     learner.TargetContinuous,
		Input:      learner.InputNumeric,
	}
}

func (l *Learner) Fit(X *dataset.Table, y dataset.Column) (learner.Fitted, error) {
	n := X.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if y.Kind() != dataset.ColumnNumeric {
		return nil, fmt.Errorf("target column is %s, want numeric", y.Kind())
	}
	if y.Len() != n {
		return nil, fmt.Errorf("have %d targets for %d rows", y.Len(), n)
	}

	// Augment with a bias column and solve (XtX + lambda*I) w = Xty.
	p := X.NumCols() + 1
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)

	targets := y.Values()
	for r := 0; r < n; r++ {
		row := X.Row(r)
		for i := 0; i < p; i++ {
			vi := 1.0
			if i < p-1 {
				vi = row[i]
			}
			for j := 0; j < p; j++ {
				vj := 1.0
				if j < p-1 {
					vj = row[j]
				}
				xtx[i][j] += vi * vj
			}
			xty[i] += vi * targets[r]
		}
	}
	for i := 0; i < p-1; i++ {
		xtx[i][i] += l.ridge
	}

	w, err := solve(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	return &Fitted{Weights: w[:p-1], Bias: w[p-1]}, nil
}

// solve runs Gaussian elimination with partial pivoting on a (mutated in
// place) square system.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

type Fitted struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (f *Fitted) Predict(X *dataset.Table) (learner.Prediction, error) {
	out := make(learner.Points, X.NumRows())
	for i, row := range X.Rows() {
		if len(row) != len(f.Weights) {
			return nil, fmt.Errorf("row %d has %d features, model has %d", i, len(row), len(f.Weights))
		}
		sum := f.Bias
		for j, v := range row {
			sum += f.Weights[j] * v
		}
		out[i] = sum
	}
	return out, nil
}

func (f *Fitted) Snapshot() ([]byte, error) {
	return json.Marshal(f)
}

func Restore(data []byte) (learner.Fitted, error) {
	var f Fitted
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("restore linear model: %w", err)
	}
	return &f, nil
}
