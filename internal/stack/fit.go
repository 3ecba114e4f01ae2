package stack

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"meld/internal/dataset"
	"meld/internal/learner"
	"meld/internal/logging"
	"meld/internal/resample"
	"meld/pkg/rworker"
)

// Fit runs the whole stacking procedure: out-of-fold training of every base
// model, assembly of the meta-dataset, meta-learner fitting and full-data
// retraining. It either returns a complete fitted stack or an error; no
// partial result survives a failure.
func (s *Stack) Fit(ctx context.Context, X *dataset.Table, y dataset.Column) (*Fitted, error) {
	logger := logging.FromContext(ctx)
	started := time.Now()

	n := X.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("stack: empty dataset")
	}
	if y.Len() != n {
		return nil, fmt.Errorf("stack: have %d targets for %d rows", y.Len(), n)
	}

	levels := y.Levels()
	columns := s.layout(levels)

	folds, err := s.strategy.Folds(n, &y)
	if err != nil {
		return nil, fmt.Errorf("stack: partition folds: %w", err)
	}

	Z, yMeta, err := s.outOfFold(X, y, folds, columns, levels)
	if err != nil {
		return nil, err
	}
	logger.Debugf("stack: meta-dataset assembled, %d rows, %d columns", Z.NumRows(), Z.NumCols())

	metaFitted, err := s.metalearner.Fit(Z, yMeta)
	if err != nil {
		return nil, &TrainError{Model: "metalearner", Fold: FoldFull, Err: err}
	}

	stages, err := s.retrain(X, y, levels)
	if err != nil {
		return nil, err
	}

	fitted, err := NewFitted(metaFitted, s.metalearner.Meta(), stages)
	if err != nil {
		return nil, err
	}
	logger.Infof("stack: fitted %d base models over %d folds in %s", len(s.models), len(folds), time.Since(started))
	return fitted, nil
}

// layout is the meta-dataset column layout: one block per base model in
// declaration order. It is fixed before any training happens and shared by
// the train-time and deploy-time feature tables.
func (s *Stack) layout(levels []string) []string {
	var columns []string
	for _, m := range s.models {
		columns = append(columns, columnsFor(m.Name, m.Learner.Meta(), levels)...)
	}
	return columns
}

// outOfFold trains every base model per fold on the fold's train rows,
// predicts on its test rows and assembles the transformed blocks, in fold
// order, into the meta-dataset. Row j of Z was never seen at train time by
// the model instance that produced it.
func (s *Stack) outOfFold(X *dataset.Table, y dataset.Column, folds []resample.Fold, columns, levels []string) (*dataset.Table, dataset.Column, error) {
	var rows []dataset.Vector
	yMeta := y.Select(nil)

	for foldIdx, fold := range folds {
		if len(fold.Test) == 0 {
			continue
		}
		Xtrain := X.Select(fold.Train)
		ytrain := y.Select(fold.Train)
		Xtest := X.Select(fold.Test)

		blockCols := make([][]float64, 0, len(columns))
		for _, m := range s.models {
			fitted, err := m.Learner.Fit(Xtrain, ytrain)
			if err != nil {
				return nil, dataset.Column{}, &TrainError{Model: m.Name, Fold: foldIdx, Err: err}
			}
			pred, err := fitted.Predict(Xtest)
			if err != nil {
				return nil, dataset.Column{}, &TrainError{Model: m.Name, Fold: foldIdx, Err: err}
			}
			tf, err := transformFor(m.Learner.Meta())
			if err != nil {
				return nil, dataset.Column{}, err
			}
			cols, err := tf(pred, levels)
			if err != nil {
				return nil, dataset.Column{}, &TrainError{Model: m.Name, Fold: foldIdx, Err: err}
			}
			for _, col := range cols {
				if len(col) != len(fold.Test) {
					return nil, dataset.Column{}, &TrainError{
						Model: m.Name, Fold: foldIdx,
						Err:   fmt.Errorf("transform produced %d rows for %d test rows", len(col), len(fold.Test)),
					}
				}
			}
			blockCols = append(blockCols, cols...)
		}

		block, err := dataset.FromColumns(columns, blockCols)
		if err != nil {
			return nil, dataset.Column{}, fmt.Errorf("stack: fold %d block: %w", foldIdx, err)
		}
		rows = append(rows, block.Rows()...)

		yMeta, err = yMeta.Concat(y.Select(fold.Test))
		if err != nil {
			return nil, dataset.Column{}, fmt.Errorf("stack: fold %d targets: %w", foldIdx, err)
		}
	}

	Z, err := dataset.NewTable(columns, rows)
	if err != nil {
		return nil, dataset.Column{}, fmt.Errorf("stack: assemble meta-dataset: %w", err)
	}
	if Z.NumRows() != X.NumRows() || yMeta.Len() != Z.NumRows() {
		return nil, dataset.Column{}, fmt.Errorf("stack: meta-dataset has %d rows and %d targets for %d input rows",
			Z.NumRows(), yMeta.Len(), X.NumRows())
	}
	return Z, yMeta, nil
}

// retrain fits every base model on the entire dataset. The fits are
// independent, so they run on a bounded pool; results land in declaration
// order regardless of completion order.
func (s *Stack) retrain(X *dataset.Table, y dataset.Column, levels []string) ([]Stage, error) {
	stages := make([]Stage, len(s.models))
	err := rworker.Run(len(s.models), runtime.GOMAXPROCS(0), func(i int) error {
		m := s.models[i]
		fitted, err := m.Learner.Fit(X, y)
		if err != nil {
			return &TrainError{Model: m.Name, Fold: FoldFull, Err: err}
		}
		stageLevels := []string(nil)
		if m.Learner.Meta().Target == learner.TargetCategorical {
			stageLevels = levels
		}
		stages[i] = Stage{Name: m.Name, Meta: m.Learner.Meta(), Levels: stageLevels, Fitted: fitted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stages, nil
}
