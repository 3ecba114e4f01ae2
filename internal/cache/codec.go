package cache

import (
	"bytes"
	"fmt"

	xdr "github.com/davecgh/go-xdr/xdr2"

	"meld/internal/learner"
)

const (
	entryPoint = int32(iota + 1)
	entryDistribution
)

// Entry is the wire form of a single-row prediction. Levels and Probs are
// only set for categorical distributions.
type Entry struct {
	Kind   int32
	Value  float64
	Mean   float64
	StdDev float64
	Levels []string
	Probs  []float64
}

// EncodePrediction extracts row i of a prediction into a cacheable entry.
func EncodePrediction(pred learner.Prediction, i int) (*Entry, error) {
	switch p := pred.(type) {
	case learner.Points:
		if i >= len(p) {
			return nil, fmt.Errorf("row %d out of range", i)
		}
		return &Entry{Kind: entryPoint, Value: p[i]}, nil
	case learner.Distributions:
		if i >= len(p.Items) {
			return nil, fmt.Errorf("row %d out of range", i)
		}
		item := p.Items[i]
		return &Entry{
			Kind:   entryDistribution,
			Mean:   item.Mean,
			StdDev: item.StdDev,
			Levels: p.Levels,
			Probs:  item.Probs,
		}, nil
	default:
		return nil, fmt.Errorf("prediction type %T is not cacheable", pred)
	}
}

// Prediction turns the entry back into a one-row prediction.
func (e *Entry) Prediction() (learner.Prediction, error) {
	switch e.Kind {
	case entryPoint:
		return learner.Points{e.Value}, nil
	case entryDistribution:
		return learner.Distributions{
			Levels: e.Levels,
			Items:  []learner.Distribution{{Mean: e.Mean, StdDev: e.StdDev, Probs: e.Probs}},
		}, nil
	default:
		return nil, fmt.Errorf("unknown entry kind %d", e.Kind)
	}
}

func encodeEntry(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, e); err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &e); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return &e, nil
}
