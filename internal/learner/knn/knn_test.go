package knn

import (
	"testing"

	"meld/internal/dataset"
	"meld/internal/learner"
)

func TestPredict_MeanOfNeighbours(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0}, {1}, {10}, {11}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{0, 2, 20, 22})

	fitted, err := New(WithKNum(2)).Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{0.4}, {10.4}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	pred, err := fitted.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	points := pred.(learner.Points)
	if points[0] != 1 {
		t.Fatalf("prediction near cluster one = %f, want 1", points[0])
	}
	if points[1] != 21 {
		t.Fatalf("prediction near cluster two = %f, want 21", points[1])
	}
}

func TestPredict_KLargerThanTrainingSet(t *testing.T) {
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}, {3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{1, 3})

	fitted, err := New(WithKNum(10)).Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := fitted.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.(learner.Points)[0] != 2 {
		t.Fatalf("prediction = %f, want the mean of all targets", pred.(learner.Points)[0])
	}
}

func TestPredict_DimensionMismatch(t *testing.T) {
	X, err := dataset.NewTable([]string{"x", "y"}, []dataset.Vector{{1, 2}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	fitted, err := New().Fit(X, dataset.NewNumericColumn([]float64{1}))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	bad, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := fitted.Predict(bad); err == nil {
		t.Fatal("dimension mismatch was accepted")
	}
}

func TestSnapshotRoundtrip_KeepsDistance(t *testing.T) {
	X, err := dataset.NewTable([]string{"x", "y"}, []dataset.Vector{{2, 2}, {0, 3.5}, {10, 10}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{100, 10, 1000})

	fitted, err := New(WithKNum(1), WithDistance(dataset.DistanceManhattan)).Fit(X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// The origin's Manhattan neighbour is (0,3.5) while its Euclidean
	// neighbour is (2,2), so a restore that loses the distance is visible.
	in, err := dataset.NewTable([]string{"x", "y"}, []dataset.Vector{{0, 0}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	pred, err := fitted.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if before := pred.(learner.Points)[0]; before != 10 {
		t.Fatalf("prediction = %f, want the Manhattan neighbour's target 10", before)
	}

	data, err := fitted.(*Fitted).Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restored, err := Restore(data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	pred, err = restored.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if after := pred.(learner.Points)[0]; after != 10 {
		t.Fatalf("prediction after restore = %f, want 10", after)
	}
}

func TestFit_CopiesTrainingData(t *testing.T) {
	rows := []dataset.Vector{{1}, {2}}
	X, err := dataset.NewTable([]string{"x"}, rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	fitted, err := New(WithKNum(1)).Fit(X, dataset.NewNumericColumn([]float64{1, 2}))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	rows[0][0] = 100

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	pred, err := fitted.Predict(in)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.(learner.Points)[0] != 1 {
		t.Fatal("fitted model shares memory with the caller's rows")
	}
}
