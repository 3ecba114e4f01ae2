package stack

import (
	"fmt"

	"meld/internal/learner"
)

// transformFn reduces a raw prediction into one or more numeric feature
// columns, returned column-major. levels is the class level set fixed at
// stack construction; it is nil for continuous targets.
type transformFn func(pred learner.Prediction, levels []string) ([][]float64, error)

type transformKey struct {
	prediction learner.PredictionKind
	target     learner.TargetKind
}

// transforms is the full set of supported (prediction kind, target kind)
// combinations. Anything outside this table is rejected at construction.
var transforms = map[transformKey]transformFn{
	{learner.KindDeterministic, learner.TargetContinuous}:  transformIdentity,
	{learner.KindProbabilistic, learner.TargetContinuous}:  transformMean,
	{learner.KindProbabilistic, learner.TargetCategorical}: transformClassProbs,
}

func transformFor(meta learner.Meta) (transformFn, error) {
	fn, ok := transforms[transformKey{meta.Prediction, meta.Target}]
	if !ok {
		return nil, configErrorf("unsupported prediction %s for %s target", meta.Prediction, meta.Target)
	}
	return fn, nil
}

// columnsFor is the feature-column layout a model contributes to the
// meta-dataset: one column for a continuous target, one per class level for
// a categorical one.
func columnsFor(name string, meta learner.Meta, levels []string) []string {
	if meta.Target != learner.TargetCategorical {
		return []string{name}
	}
	cols := make([]string, len(levels))
	for i, level := range levels {
		cols[i] = name + "=" + level
	}
	return cols
}

func transformIdentity(pred learner.Prediction, _ []string) ([][]float64, error) {
	points, ok := pred.(learner.Points)
	if !ok {
		return nil, fmt.Errorf("expected point-valued prediction, got %T", pred)
	}
	col := make([]float64, len(points))
	copy(col, points)
	return [][]float64{col}, nil
}

func transformMean(pred learner.Prediction, _ []string) ([][]float64, error) {
	dists, ok := pred.(learner.Distributions)
	if !ok {
		return nil, fmt.Errorf("expected distribution-valued prediction, got %T", pred)
	}
	col := make([]float64, len(dists.Items))
	for i, d := range dists.Items {
		col[i] = d.Mean
	}
	return [][]float64{col}, nil
}

func transformClassProbs(pred learner.Prediction, levels []string) ([][]float64, error) {
	dists, ok := pred.(learner.Distributions)
	if !ok {
		return nil, fmt.Errorf("expected distribution-valued prediction, got %T", pred)
	}
	// Align the model's own level order to the stack's fixed layout; a level
	// the model never saw contributes probability zero.
	modelIdx := make(map[string]int, len(dists.Levels))
	for i, level := range dists.Levels {
		modelIdx[level] = i
	}
	cols := make([][]float64, len(levels))
	for c := range levels {
		cols[c] = make([]float64, len(dists.Items))
	}
	for r, d := range dists.Items {
		for c, level := range levels {
			i, ok := modelIdx[level]
			if !ok {
				continue
			}
			if i >= len(d.Probs) {
				return nil, fmt.Errorf("row %d has %d probabilities for %d levels", r, len(d.Probs), len(dists.Levels))
			}
			cols[c][r] = d.Probs[i]
		}
	}
	return cols, nil
}
