package stack

import (
	"time"

	"github.com/google/uuid"

	"meld/internal/dataset"
	"meld/internal/learner"
)

// Stage is one deploy-time pipeline step: a base model retrained on the full
// dataset, plus the transform metadata frozen at fit time.
type Stage struct {
	Name   string
	Meta   learner.Meta
	Levels []string
	Fitted learner.Fitted
}

// Fitted is the result of a successful stack fit: the retrained base models,
// the fitted meta-learner and the staged feature pipeline. It is immutable;
// Predict evaluates the stages against new input without touching shared
// state, so concurrent calls are safe.
type Fitted struct {
	id        uuid.UUID
	createdAt time.Time
	columns   []string
	kind      learner.PredictionKind
	stages    []Stage
	tfs       []transformFn
	meta      learner.Fitted
	metaMeta  learner.Meta
}

// NewFitted assembles a fitted stack from its stages. It is used at the end
// of Fit and when restoring a persisted snapshot; transforms and the column
// layout are re-derived from the stage metadata, never stored.
func NewFitted(meta learner.Fitted, metaMeta learner.Meta, stages []Stage) (*Fitted, error) {
	if meta == nil {
		return nil, configErrorf("no fitted metalearner supplied")
	}
	f := &Fitted{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		kind:      metaMeta.Prediction,
		stages:    append([]Stage(nil), stages...),
		tfs:       make([]transformFn, len(stages)),
		meta:      meta,
		metaMeta:  metaMeta,
	}
	for i, stage := range f.stages {
		tf, err := transformFor(stage.Meta)
		if err != nil {
			return nil, err
		}
		f.tfs[i] = tf
		f.columns = append(f.columns, columnsFor(stage.Name, stage.Meta, stage.Levels)...)
	}
	return f, nil
}

// Predict replays the feature pipeline on new input: per-model predict and
// transform, concatenation into a table with the training-time column
// layout, then the meta-learner's predict. The prediction kind matches the
// meta-learner's contract.
func (f *Fitted) Predict(X *dataset.Table) (learner.Prediction, error) {
	var featureCols [][]float64
	for i, stage := range f.stages {
		pred, err := stage.Fitted.Predict(X)
		if err != nil {
			return nil, &PredictError{Model: stage.Name, Err: err}
		}
		cols, err := f.tfs[i](pred, stage.Levels)
		if err != nil {
			return nil, &PredictError{Model: stage.Name, Err: err}
		}
		featureCols = append(featureCols, cols...)
	}

	Z, err := dataset.FromColumns(f.columns, featureCols)
	if err != nil {
		return nil, &PredictError{Model: "metalearner", Err: err}
	}
	pred, err := f.meta.Predict(Z)
	if err != nil {
		return nil, &PredictError{Model: "metalearner", Err: err}
	}
	return pred, nil
}

func (f *Fitted) ID() uuid.UUID {
	return f.id
}

func (f *Fitted) CreatedAt() time.Time {
	return f.createdAt
}

// Columns is the feature-table layout, identical for training and deploy.
func (f *Fitted) Columns() []string {
	return append([]string(nil), f.columns...)
}

func (f *Fitted) PredictionKind() learner.PredictionKind {
	return f.kind
}

// Stages returns the deploy pipeline stages in declaration order.
func (f *Fitted) Stages() []Stage {
	return append([]Stage(nil), f.stages...)
}

// MetaLearner returns the fitted meta-learner.
func (f *Fitted) MetaLearner() learner.Fitted {
	return f.meta
}

// MetaKind returns the meta-learner's static metadata.
func (f *Fitted) MetaKind() learner.Meta {
	return f.metaMeta
}
