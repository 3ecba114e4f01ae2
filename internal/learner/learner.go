package learner

import (
	"meld/internal/dataset"
)

// Learner is the training contract every base model and meta-learner
// satisfies. Fit never mutates the learner: it returns an independent fitted
// instance, so the same learner can be trained on many folds concurrently.
type Learner interface {
	Meta() Meta
	Fit(X *dataset.Table, y dataset.Column) (Fitted, error)
}

// Fitted is a trained model. Predict must be a pure function of its input.
type Fitted interface {
	Predict(X *dataset.Table) (Prediction, error)
}

// Snapshotter is implemented by fitted models that can serialize their state
// for persistence.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Meta is the static metadata of a learner: what it predicts and what input
// it accepts.
type Meta struct {
	Prediction PredictionKind
	Target     TargetKind
	Input      InputKind
}

// Prediction is the raw output of a fitted model on a row batch.
type Prediction interface {
	Len() int
}

// Points is a point-valued prediction, one value per input row.
type Points []float64

func (p Points) Len() int {
	return len(p)
}

// Distribution is a single probabilistic prediction. For a continuous target
// Mean and StdDev describe the predictive distribution; for a categorical
// target Probs holds one probability per class level.
type Distribution struct {
	Mean   float64
	StdDev float64
	Probs  []float64
}

// Distributions is a distribution-valued prediction, one distribution per
// input row. Levels names the class levels Probs is aligned to; it is nil
// for continuous targets.
type Distributions struct {
	Levels []string
	Items  []Distribution
}

func (d Distributions) Len() int {
	return len(d.Items)
}
