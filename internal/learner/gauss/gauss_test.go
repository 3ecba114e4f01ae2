package gauss

import (
	"math"
	"testing"

	"meld/internal/dataset"
	"meld/internal/learner"
)

func TestFit_MeanAndSpread(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0}, {1}, {2}, {3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{1, 3, 5, 7}) // exact line, zero residuals

	fitted, err := New().Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := fitted.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	dists := pred.(learner.Distributions)
	if dists.Levels != nil {
		t.Fatal("continuous regressor declared class levels")
	}
	for i, want := range []float64{1, 3, 5, 7} {
		if math.Abs(dists.Items[i].Mean-want) > 1e-9 {
			t.Fatalf("mean[%d] = %f, want %f", i, dists.Items[i].Mean, want)
		}
		if dists.Items[i].StdDev > 1e-6 {
			t.Fatalf("stddev = %f on noiseless data", dists.Items[i].StdDev)
		}
	}
}

func TestFit_NoisyDataHasPositiveSpread(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0}, {1}, {2}, {3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{1, 4, 4, 7})

	fitted, err := New().Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := fitted.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.(learner.Distributions).Items[0].StdDev <= 0 {
		t.Fatal("residual spread was not estimated")
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0}, {1}, {2}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	fitted, err := New().Fit(X, dataset.NewNumericColumn([]float64{0, 1, 2}))
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
	p1, err := fitted.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	p2, err := restored.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := range p1.(learner.Distributions).Items {
		if p1.(learner.Distributions).Items[i].Mean != p2.(learner.Distributions).Items[i].Mean {
			t.Fatal("restored model predicts a different mean")
		}
	}
}
