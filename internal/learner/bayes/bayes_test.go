package bayes

import (
	"math"
	"testing"

	"meld/internal/dataset"
	"meld/internal/learner"
)

func trainingData(t *testing.T) (*dataset.Table, dataset.Column) {
	t.Helper()
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{
		{0.1}, {0.2}, {0.0}, {9.9}, {10.1}, {10.0},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return X, dataset.NewCategoricalColumn([]string{"low", "low", "low", "high", "high", "high"})
}

func TestFit_SeparatedClasses(t *testing.T) {
	X, y := trainingData(t)
	fitted, err := New().Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0.15}, {10.05}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	pred, err := fitted.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	dists := pred.(learner.Distributions)
	if len(dists.Levels) != 2 || dists.Levels[0] != "low" || dists.Levels[1] != "high" {
		t.Fatalf("levels = %v", dists.Levels)
	}
	for i, d := range dists.Items {
		sum := 0.0
		for _, p := range d.Probs {
			if p < 0 || p > 1 {
				t.Fatalf("row %d has probability %f outside [0,1]", i, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d probabilities sum to %f", i, sum)
		}
	}
	if dists.Items[0].Probs[0] < 0.99 {
		t.Fatalf("p(low|x=0.15) = %f, want near 1", dists.Items[0].Probs[0])
	}
	if dists.Items[1].Probs[1] < 0.99 {
		t.Fatalf("p(high|x=10.05) = %f, want near 1", dists.Items[1].Probs[1])
	}
}

func TestFit_KeepsAbsentLevels(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}, {2}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	full := dataset.NewCategoricalColumn([]string{"a", "b", "c"})
	sub := full.Select([]int{0, 1}) // level c has no training rows

	fitted, err := New().Fit(X, sub)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := fitted.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	dists := pred.(learner.Distributions)
	if len(dists.Levels) != 3 {
		t.Fatalf("model declares %d levels, want 3", len(dists.Levels))
	}
	for _, d := range dists.Items {
		if d.Probs[2] != 0 {
			t.Fatalf("absent level has probability %f, want 0", d.Probs[2])
		}
	}
}

func TestFit_Errors(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := New().Fit(X, dataset.NewNumericColumn([]float64{1})); err == nil {
		t.Fatal("numeric target was accepted")
	}
	empty, err := dataset.NewTable([]string{"x"}, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := New().Fit(empty, dataset.NewCategoricalColumn(nil)); err == nil {
		t.Fatal("empty dataset was accepted")
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	X, y := trainingData(t)
	fitted, err := New().Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	data, err := fitted.(*Fitted).Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restored, err := Restore(data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{5}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	p1, err := fitted.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	p2, err := restored.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	d1 := p1.(learner.Distributions).Items[0].Probs
	d2 := p2.(learner.Distributions).Items[0].Probs
	for i := range d1 {
		if math.Abs(d1[i]-d2[i]) > 1e-12 {
			t.Fatalf("restored model predicts %v, original %v", d2, d1)
		}
	}
}
