package blueprint

import (
	"context"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"meld/internal/dataset"
	"meld/internal/learner"
)

const housingBlueprint = `
name = "housing"

[strategy]
kind = "kfold"
folds = 2

[metalearner]
type = "linear"

[[model]]
name = "ols"
type = "linear"

[[model]]
name = "ridge"
type = "linear"
params = { ridge = 0.1 }

[[model]]
name = "neighbours"
type = "knn"
params = { k = 2, distance = "manhattan" }
`

func TestParseAndBuild(t *testing.T) {
	def, err := Parse(housingBlueprint)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Name != "housing" {
		t.Fatalf("name = %q", def.Name)
	}
	st, err := def.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(st.Models()); got != 3 {
		t.Fatalf("models = %d, want 3", got)
	}
	if st.Strategy().Name() != "kfold" {
		t.Fatalf("strategy = %q", st.Strategy().Name())
	}
}

func TestBuild_UnknownLearnerType(t *testing.T) {
	def := &Definition{
		Name:        "bad",
		MetaLearner: ModelDef{Type: "linear"},
		Models:      []ModelDef{{Name: "m", Type: "forest"}},
	}
	if _, err := def.Build(); err == nil {
		t.Fatal("unknown learner type was accepted")
	}
}

func TestBuild_UnknownStrategy(t *testing.T) {
	def := &Definition{
		Name:        "bad",
		Strategy:    StrategyDef{Kind: "bootstrap"},
		MetaLearner: ModelDef{Type: "linear"},
		Models:      []ModelDef{{Name: "m", Type: "linear"}},
	}
	if _, err := def.Build(); err == nil {
		t.Fatal("unknown strategy was accepted")
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	def, err := Parse(housingBlueprint)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st, err := def.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}, {2}, {3}, {4}, {5}, {6}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	y := dataset.NewNumericColumn([]float64{3, 5, 7, 9, 11, 13})

	fitted, err := st.Fit(context.Background(), X, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	snap, err := TakeSnapshot(def, []string{"x"}, fitted)
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	data, err := snap.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != fitted.ID().String() {
		t.Fatalf("id = %q, want %q", decoded.ID, fitted.ID())
	}
	if !reflect.DeepEqual(decoded.Features, []string{"x"}) {
		t.Fatalf("features = %v", decoded.Features)
	}

	restored, err := decoded.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(restored.Columns(), fitted.Columns()) {
		t.Fatalf("restored layout %v differs from %v", restored.Columns(), fitted.Columns())
	}

	in, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{7}, {8}})
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
	if !reflect.DeepEqual(p1.(learner.Points), p2.(learner.Points)) {
		t.Fatalf("restored stack predicts differently:\n%s", spew.Sdump(p1, p2))
	}
}

func TestTakeSnapshot_StageOutsideBlueprint(t *testing.T) {
	def, err := Parse(housingBlueprint)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	other := &Definition{Name: "other", MetaLearner: def.MetaLearner}

	st, err := def.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	X, err := dataset.NewTable([]string{"x"}, []dataset.Vector{{1}, {2}, {3}, {4}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	fitted, err := st.Fit(context.Background(), X, dataset.NewNumericColumn([]float64{1, 2, 3, 4}))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := TakeSnapshot(other, []string{"x"}, fitted); err == nil {
		t.Fatal("snapshot against a foreign blueprint was accepted")
	}
}
