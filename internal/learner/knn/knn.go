package knn

import (
	"encoding/json"
	"fmt"
	"sort"

	"meld/internal/dataset"
	"meld/internal/learner"
)

var (
	_ learner.Learner     = (*Learner)(nil)
	_ learner.Fitted      = (*Fitted)(nil)
	_ learner.Snapshotter = (*Fitted)(nil)
)

const defaultKNum = 3

type Option func(*Learner)

func WithKNum(k int) Option {
	return func(l *Learner) {
		l.kNum = k
	}
}

// WithDistance selects the distance by name so a fitted model can carry it
// through a snapshot. See dataset.DistanceFor for the known names.
func WithDistance(name string) Option {
	return func(l *Learner) {
		l.distance = name
	}
}

// Learner is a brute-force k-nearest-neighbour regressor: a prediction is
// the mean target of the k closest training rows.
type Learner struct {
	kNum     int
	distance string
}

func New(opts ...Option) *Learner {
	l := &Learner{kNum: defaultKNum, distance: dataset.DistanceEuclidean}
	for _, f := range opts {
		f(l)
	}
	return l
}

func (l *Learner) Meta() learner.Meta {
	return learner.Meta{
		Prediction: learner.KindDeterministic,
		Target:     learner.TargetContinuous,
		Input:      learner.InputNumeric,
	}
}

func (l *Learner) Fit(X *dataset.Table, y dataset.Column) (learner.Fitted, error) {
	distFunc, err := dataset.DistanceFor(l.distance)
	if err != nil {
		return nil, err
	}
	n := X.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if y.Kind() != dataset.ColumnNumeric {
		return nil, fmt.Errorf("target column is %s, want numeric", y.Kind())
	}
	if y.Len() != n {
		return nil, fmt.Errorf("have %d targets for %d rows", y.Len(), n)
	}

	rows := make([][]float64, n)
	for i, row := range X.Rows() {
		rows[i] = row.Copy()
	}
	values := make([]float64, n)
	copy(values, y.Values())
	return &Fitted{KNum: l.kNum, Distance: l.distance, Rows: rows, Values: values, distFunc: distFunc}, nil
}

type Fitted struct {
	KNum     int         `json:"k"`
	Distance string      `json:"distance"`
	Rows     [][]float64 `json:"rows"`
	Values   []float64   `json:"values"`

	distFunc dataset.DistanceFn
}

func (f *Fitted) Predict(X *dataset.Table) (learner.Prediction, error) {
	out := make(learner.Points, X.NumRows())
	for i, row := range X.Rows() {
		v, err := f.predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (f *Fitted) predict(vec []float64) (float64, error) {
	distFunc := f.distFunc
	if distFunc == nil {
		distFunc = dataset.EuclideanDistance
	}

	type neighbour struct {
		dist  float64
		value float64
	}
	nbrs := make([]neighbour, 0, len(f.Rows))
	for i, row := range f.Rows {
		d, err := distFunc(vec, row)
		if err != nil {
			return 0, err
		}
		nbrs = append(nbrs, neighbour{dist: d, value: f.Values[i]})
	}
	sort.Slice(nbrs, func(i, j int) bool {
		return nbrs[i].dist < nbrs[j].dist
	})

	k := f.KNum
	if k > len(nbrs) {
		k = len(nbrs)
	}
	var sum float64
	for i := 0; i < k; i++ {
		sum += nbrs[i].value
	}
	return sum / float64(k), nil
}

func (f *Fitted) Snapshot() ([]byte, error) {
	return json.Marshal(f)
}

func Restore(data []byte) (learner.Fitted, error) {
	var f Fitted
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("restore knn model: %w", err)
	}
	if f.Distance == "" {
		f.Distance = dataset.DistanceEuclidean
	}
	distFunc, err := dataset.DistanceFor(f.Distance)
	if err != nil {
		return nil, fmt.Errorf("restore knn model: %w", err)
	}
	f.distFunc = distFunc
	return &f, nil
}
