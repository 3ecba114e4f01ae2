package stack

import "fmt"

// FoldFull marks an error raised outside the fold loop (full-data retraining
// or meta-learner fitting).
const FoldFull = -1

// ConfigError is raised at construction time only; a stack that constructed
// successfully never fails with it later.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("stack: invalid configuration: %s", e.Reason)
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// TrainError reports a base model or the meta-learner failing to fit. Model
// is the declared name and Fold the fold index, or FoldFull.
type TrainError struct {
	Model string
	Fold  int
	Err   error
}

func (e *TrainError) Error() string {
	if e.Fold == FoldFull {
		return fmt.Sprintf("stack: training %q: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("stack: training %q on fold %d: %v", e.Model, e.Fold, e.Err)
}

func (e *TrainError) Unwrap() error {
	return e.Err
}

// PredictError reports a fitted model failing to predict on given input.
type PredictError struct {
	Model string
	Err   error
}

func (e *PredictError) Error() string {
	return fmt.Sprintf("stack: predicting with %q: %v", e.Model, e.Err)
}

func (e *PredictError) Unwrap() error {
	return e.Err
}
