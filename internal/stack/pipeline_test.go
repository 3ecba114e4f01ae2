package stack

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"meld/internal/dataset"
	"meld/internal/learner"
)

func TestFitted_DeployMatchesTrainingLayout(t *testing.T) {
	X, y := sixRowDataset(t)
	meta := &fakeMetaLearner{}
	s, err := New(meta, twoFolds(t), []NamedLearner{
		{Name: "m1", Learner: &fakeRegressor{mult: 1, input: learner.InputNumeric}},
		{Name: "m2", Learner: &fakeRegressor{mult: 2, input: learner.InputNumeric}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fitted, err := s.Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	trainCols := meta.lastZ.Columns()
	deployCols := fitted.Columns()
	if len(trainCols) != len(deployCols) {
		t.Fatalf("deploy layout has %d columns, training had %d", len(deployCols), len(trainCols))
	}
	for i := range trainCols {
		if trainCols[i] != deployCols[i] {
			t.Fatalf("column %d is %q at deploy time, was %q at training time", i, deployCols[i], trainCols[i])
		}
	}
}

func TestFitted_PredictReplaysWithoutRefitting(t *testing.T) {
	X, y := sixRowDataset(t)
	m1 := &fakeRegressor{mult: 1, input: learner.InputNumeric}
	meta := &fakeMetaLearner{}
	s, err := New(meta, twoFolds(t), []NamedLearner{{Name: "m1", Learner: m1}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fitted, err := s.Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	fitsAfterTraining := atomic.LoadInt32(&m1.fitCalls)
	metaFitsAfterTraining := atomic.LoadInt32(&meta.fitCalls)

	newX, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{7}, {8}})
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	first, err := fitted.Predict(newX)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	second, err := fitted.Predict(newX)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	p1 := first.(learner.Points)
	p2 := second.(learner.Points)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("repeated predictions differ: %v vs %v", p1, p2)
		}
	}
	// The full-data model trained on all rows 0..5 (train sum 15); the meta
	// fake sums the single feature column.
	if p1[0] != 15+7 || p1[1] != 15+8 {
		t.Fatalf("predictions = %v, want [22 23]", p1)
	}

	if atomic.LoadInt32(&m1.fitCalls) != fitsAfterTraining {
		t.Fatal("predicting retrained a base model")
	}
	if atomic.LoadInt32(&meta.fitCalls) != metaFitsAfterTraining {
		t.Fatal("predicting retrained the metalearner")
	}
}

func TestFitted_ConcurrentPredicts(t *testing.T) {
	X, y := sixRowDataset(t)
	s, err := New(&fakeMetaLearner{}, twoFolds(t), []NamedLearner{
		{Name: "m1", Learner: &fakeRegressor{mult: 1, input: learner.InputNumeric}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fitted, err := s.Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		g := g
		go func() {
			in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{float64(g)}})
			if err != nil {
				done <- err
				return
			}
			pred, err := fitted.Predict(in)
			if err != nil {
				done <- err
				return
			}
			want := 15 + float64(g)
			if got := pred.(learner.Points)[0]; got != want {
				done <- errors.New("wrong prediction under concurrency")
				return
			}
			done <- nil
		}()
	}
	for g := 0; g < 8; g++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent predict: %v", err)
		}
	}
}

type failingFitted struct{}

func (f *failingFitted) Predict(_ *dataset.Table) (learner.Prediction, error) {
	return nil, errors.New("schema mismatch")
}

func TestFitted_PredictErrorNamesStage(t *testing.T) {
	meta := learner.Meta{Prediction: learner.KindDeterministic, Target: learner.TargetContinuous}
	fitted, err := NewFitted(&fakeMetaFitted{}, meta, []Stage{
		{Name: "broken", Meta: meta, Fitted: &failingFitted{}},
	})
	if err != nil {
		t.Fatalf("NewFitted: %v", err)
	}

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}})
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	_, err = fitted.Predict(in)
	var predErr *PredictError
	if !errors.As(err, &predErr) {
		t.Fatalf("error is %T, want *PredictError", err)
	}
	if predErr.Model != "broken" {
		t.Fatalf("error names %q, want the failing stage", predErr.Model)
	}
}

func TestNewFitted_RejectsUnsupportedStage(t *testing.T) {
	metaMeta := learner.Meta{Prediction: learner.KindDeterministic, Target: learner.TargetContinuous}
	_, err := NewFitted(&fakeMetaFitted{}, metaMeta, []Stage{
		{Name: "bad", Meta: learner.Meta{Prediction: learner.KindDeterministic, Target: learner.TargetCategorical}},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error is %T, want *ConfigError", err)
	}
}
