package stack

import (
	"meld/internal/learner"
	"meld/internal/resample"
)

// Reserved configuration field names. A base model may not shadow them, so
// lookups by name always resolve to the canonical field.
var reservedNames = map[string]bool{
	"metalearner": true,
	"strategy":    true,
	"stack":       true,
}

// NamedLearner is one base model with its declared name. Declaration order
// is significant: it fixes the column order of the meta-dataset.
type NamedLearner struct {
	Name    string
	Learner learner.Learner
}

// Stack is the immutable configuration of a stacking ensemble: ordered named
// base models, a meta-learner and a fold strategy. All validation happens
// here; a constructed stack never raises a ConfigError later.
type Stack struct {
	metalearner learner.Learner
	strategy    resample.Strategy
	models      []NamedLearner
	byName      map[string]learner.Learner
	inputKind   learner.InputKind
	warnings    []string
}

func New(metalearner learner.Learner, strategy resample.Strategy, models []NamedLearner) (*Stack, error) {
	s := &Stack{
		metalearner: metalearner,
		strategy:    strategy,
		models:      append([]NamedLearner(nil), models...),
		byName:      make(map[string]learner.Learner, len(models)),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	for _, m := range s.models {
		s.byName[m.Name] = m.Learner
	}
	s.inputKind = s.inferInputKind()
	return s, nil
}

func (s *Stack) validate() error {
	if s.metalearner == nil {
		return configErrorf("no metalearner supplied")
	}
	meta := s.metalearner.Meta()
	if meta.Prediction != learner.KindDeterministic && meta.Prediction != learner.KindProbabilistic {
		return configErrorf("metalearner prediction kind is %s", meta.Prediction)
	}
	if meta.Target != learner.TargetContinuous && meta.Target != learner.TargetCategorical {
		return configErrorf("metalearner target kind is %s", meta.Target)
	}
	if s.strategy == nil {
		return configErrorf("no fold strategy supplied")
	}
	if len(s.models) == 0 {
		return configErrorf("no base models supplied")
	}

	seen := make(map[string]bool, len(s.models))
	for _, m := range s.models {
		if m.Name == "" {
			return configErrorf("base model with empty name")
		}
		if reservedNames[m.Name] {
			return configErrorf("base model name %q collides with a reserved field", m.Name)
		}
		if seen[m.Name] {
			return configErrorf("duplicate base model name %q", m.Name)
		}
		seen[m.Name] = true
		if m.Learner == nil {
			return configErrorf("base model %q is nil", m.Name)
		}
		if _, err := transformFor(m.Learner.Meta()); err != nil {
			return configErrorf("base model %q: %v", m.Name, err.(*ConfigError).Reason)
		}
	}

	if len(s.models) == 1 {
		s.warnings = append(s.warnings, "a stack with a single base model adds little over the model itself")
	}
	return nil
}

// inferInputKind picks the first base model (declaration order) whose
// accepted input kind is a sub-kind of every other model's. This is a linear
// scan, not a lattice meet, so ties resolve to the earliest declared model.
func (s *Stack) inferInputKind() learner.InputKind {
	for _, candidate := range s.models {
		kind := candidate.Learner.Meta().Input
		ok := true
		for _, other := range s.models {
			if !kind.SubKindOf(other.Learner.Meta().Input) {
				ok = false
				break
			}
		}
		if ok {
			return kind
		}
	}
	s.warnings = append(s.warnings, "base models have no common input kind, falling back to unconstrained")
	return learner.InputUnconstrained
}

// MetaLearner returns the configured meta-learner.
func (s *Stack) MetaLearner() learner.Learner {
	return s.metalearner
}

// Strategy returns the configured fold strategy.
func (s *Stack) Strategy() resample.Strategy {
	return s.strategy
}

// Models returns the base models in declaration order.
func (s *Stack) Models() []NamedLearner {
	return append([]NamedLearner(nil), s.models...)
}

// Model looks a base model up by its declared name.
func (s *Stack) Model(name string) (learner.Learner, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// InputKind is the most general input kind simultaneously accepted by every
// base model.
func (s *Stack) InputKind() learner.InputKind {
	return s.inputKind
}

// PredictionKind of the ensemble is inherited from the meta-learner,
// regardless of base model kinds.
func (s *Stack) PredictionKind() learner.PredictionKind {
	return s.metalearner.Meta().Prediction
}

// TargetKind of the ensemble is the meta-learner's.
func (s *Stack) TargetKind() learner.TargetKind {
	return s.metalearner.Meta().Target
}

// Warnings collected during construction-time validation.
func (s *Stack) Warnings() []string {
	return append([]string(nil), s.warnings...)
}
