package blueprint

import (
	"encoding/json"
	"fmt"
	"time"

	"meld/internal/learner"
	"meld/internal/learner/bayes"
	"meld/internal/learner/gauss"
	"meld/internal/learner/knn"
	"meld/internal/learner/linear"
	"meld/internal/stack"
)

// Snapshot is the storable form of a fitted stack. Stage state is opaque to
// this package; each learner type marshals and restores its own parameters.
type Snapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatedAt   time.Time       `json:"createdAt"`
	Features    []string        `json:"features"`
	MetaLearner StageSnapshot   `json:"metalearner"`
	Stages      []StageSnapshot `json:"stages"`
}

// StageSnapshot freezes one pipeline stage: its identity, contract and
// serialized fitted state.
type StageSnapshot struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Meta   learner.Meta    `json:"meta"`
	Levels []string        `json:"levels,omitempty"`
	State  json.RawMessage `json:"state"`
}

type restoreFn func(data []byte) (learner.Fitted, error)

var restorers = map[string]restoreFn{
	"linear": linear.Restore,
	"gauss":  gauss.Restore,
	"bayes":  bayes.Restore,
	"knn":    knn.Restore,
}

// TakeSnapshot marshals a fitted stack built from the given definition. The
// definition supplies the learner type of every stage; features are the
// input column names the stack was trained on.
func TakeSnapshot(def *Definition, features []string, f *stack.Fitted) (*Snapshot, error) {
	types := make(map[string]string, len(def.Models))
	for _, m := range def.Models {
		types[m.Name] = m.Type
	}

	snap := &Snapshot{
		ID:        f.ID().String(),
		Name:      def.Name,
		CreatedAt: f.CreatedAt(),
		Features:  append([]string(nil), features...),
	}
	for _, stage := range f.Stages() {
		typ, ok := types[stage.Name]
		if !ok {
			return nil, fmt.Errorf("stage %q is not part of blueprint %q", stage.Name, def.Name)
		}
		ss, err := snapshotStage(stage.Name, typ, stage.Meta, stage.Levels, stage.Fitted)
		if err != nil {
			return nil, err
		}
		snap.Stages = append(snap.Stages, *ss)
	}

	ms, err := snapshotStage("metalearner", def.MetaLearner.Type, f.MetaKind(), nil, f.MetaLearner())
	if err != nil {
		return nil, err
	}
	snap.MetaLearner = *ms
	return snap, nil
}

func snapshotStage(name, typ string, meta learner.Meta, levels []string, fitted learner.Fitted) (*StageSnapshot, error) {
	s, ok := fitted.(learner.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("stage %q (%s) cannot be snapshotted", name, typ)
	}
	state, err := s.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot stage %q: %w", name, err)
	}
	if _, ok := restorers[typ]; !ok {
		return nil, fmt.Errorf("stage %q has unregistered type %q", name, typ)
	}
	return &StageSnapshot{Name: name, Type: typ, Meta: meta, Levels: levels, State: state}, nil
}

// Marshal encodes the snapshot for storage.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a stored snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore rebuilds the deploy pipeline from a snapshot.
func (s *Snapshot) Restore() (*stack.Fitted, error) {
	stages := make([]stack.Stage, 0, len(s.Stages))
	for _, ss := range s.Stages {
		fitted, err := restoreStage(ss)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stack.Stage{
			Name:   ss.Name,
			Meta:   ss.Meta,
			Levels: ss.Levels,
			Fitted: fitted,
		})
	}
	meta, err := restoreStage(s.MetaLearner)
	if err != nil {
		return nil, err
	}
	return stack.NewFitted(meta, s.MetaLearner.Meta, stages)
}

func restoreStage(ss StageSnapshot) (learner.Fitted, error) {
	restore, ok := restorers[ss.Type]
	if !ok {
		return nil, fmt.Errorf("stage %q has unregistered type %q", ss.Name, ss.Type)
	}
	fitted, err := restore(ss.State)
	if err != nil {
		return nil, fmt.Errorf("restore stage %q: %w", ss.Name, err)
	}
	return fitted, nil
}
