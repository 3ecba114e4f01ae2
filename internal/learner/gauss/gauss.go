package gauss

import (
	"encoding/json"
	"fmt"
	"math"

	"meld/internal/dataset"
	"meld/internal/learner"
	"meld/internal/learner/linear"
)

var (
	_ learner.Learner     = (*Learner)(nil)
	_ learner.Fitted      = (*Fitted)(nil)
	_ learner.Snapshotter = (*Fitted)(nil)
)

type Option func(*Learner)

func WithRidge(lambda float64) Option {
	return func(l *Learner) {
		l.ridge = lambda
	}
}

// Learner is a normal-error regressor: a least-squares mean with a constant
// predictive standard deviation estimated from the training residuals. Its
// predictions are distribution-valued.
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
		Prediction: learner.KindProbabilistic,
		Target:     learner.TargetContinuous,
		Input:      learner.InputNumeric,
	}
}

func (l *Learner) Fit(X *dataset.Table, y dataset.Column) (learner.Fitted, error) {
	mean, err := linear.New(linear.WithRidge(l.ridge)).Fit(X, y)
	if err != nil {
		return nil, err
	}
	lin := mean.(*linear.Fitted)

	pred, err := lin.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("training residuals: %w", err)
	}
	points := pred.(learner.Points)
	targets := y.Values()
	var sse float64
	for i := range points {
		d := targets[i] - points[i]
		sse += d * d
	}
	std := 0.0
	if len(points) > 1 {
		std = math.Sqrt(sse / float64(len(points)-1))
	}
	return &Fitted{Mean: lin, StdDev: std}, nil
}

type Fitted struct {
	Mean   *linear.Fitted `json:"mean"`
	StdDev float64        `json:"stddev"`
}

func (f *Fitted) Predict(X *dataset.Table) (learner.Prediction, error) {
	pred, err := f.Mean.Predict(X)
	if err != nil {
		return nil, err
	}
	points := pred.(learner.Points)
	items := make([]learner.Distribution, len(points))
	for i, m := range points {
		items[i] = learner.Distribution{Mean: m, StdDev: f.StdDev}
	}
	return learner.Distributions{Items: items}, nil
}

func (f *Fitted) Snapshot() ([]byte, error) {
	return json.Marshal(f)
}

func Restore(data []byte) (learner.Fitted, error) {
	var f Fitted
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("restore gauss model: %w", err)
	}
	return &f, nil
}
