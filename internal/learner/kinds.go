package learner

// PredictionKind says whether a model's predict yields a point value or a
// distribution.
type PredictionKind int

const (
	KindUnknown PredictionKind = iota
	KindDeterministic
	KindProbabilistic
)

func (k PredictionKind) String() string {
	switch k {
	case KindDeterministic:
		return "deterministic"
	case KindProbabilistic:
		return "probabilistic"
	default:
		return "unknown"
	}
}

// TargetKind is the semantic type of the predicted value.
type TargetKind int

const (
	TargetUnknown TargetKind = iota
	TargetContinuous
	TargetCategorical
)

func (k TargetKind) String() string {
	switch k {
	case TargetContinuous:
		return "continuous"
	case TargetCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// InputKind constrains the input a learner accepts. Kinds form a chain:
// a scaled table is a numeric table, a numeric table is a table. A more
// specific kind is a sub-kind of a more general one.
type InputKind int

const (
	// InputUnconstrained accepts any table.
	InputUnconstrained InputKind = iota
	// InputNumeric requires all-numeric features.
	InputNumeric
	// InputScaled requires standardized numeric features.
	InputScaled
)

func (k InputKind) String() string {
	switch k {
	case InputNumeric:
		return "numeric"
	case InputScaled:
		return "scaled"
	default:
		return "unconstrained"
	}
}

// SubKindOf reports whether input satisfying k also satisfies o.
func (k InputKind) SubKindOf(o InputKind) bool {
	return k >= o
}
