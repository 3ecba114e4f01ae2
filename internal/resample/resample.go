package resample

import (
	"fmt"
	"math/rand"

	"meld/internal/dataset"
)

// Fold is one train/test split of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// Strategy partitions n row indices into folds. The test sets of the
// returned folds cover every index exactly once. A stratified strategy needs
// the target column; a plain one ignores it.
type Strategy interface {
	Name() string
	Folds(n int, y *dataset.Column) ([]Fold, error)
}

type Option func(*options)

type options struct {
	shuffle bool
	seed    int64
}

// WithShuffle permutes row order with a fixed seed before splitting, keeping
// fold assignment reproducible.
func WithShuffle(seed int64) Option {
	return func(o *options) {
		o.shuffle = true
		o.seed = seed
	}
}

var (
	_ Strategy = (*KFold)(nil)
	_ Strategy = (*StratifiedKFold)(nil)
)

// KFold splits rows into k contiguous chunks (after an optional seeded
// shuffle); chunk i is the test set of fold i.
type KFold struct {
	k    int
	opts options
}

func NewKFold(k int, opts ...Option) (*KFold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	f := &KFold{k: k}
	for _, o := range opts {
		o(&f.opts)
	}
	return f, nil
}

func (f *KFold) Name() string {
	return fmt.Sprintf("kfold(%d)", f.k)
}

func (f *KFold) Folds(n int, _ *dataset.Column) ([]Fold, error) {
	if n < f.k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", n, f.k)
	}
	idx := order(n, f.opts)
	return chunkFolds(idx, f.k), nil
}

// StratifiedKFold deals the indices of every class level across folds so
// each test set keeps roughly the global class proportions.
type StratifiedKFold struct {
	k    int
	opts options
}

func NewStratifiedKFold(k int, opts ...Option) (*StratifiedKFold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	f := &StratifiedKFold{k: k}
	for _, o := range opts {
		o(&f.opts)
	}
	return f, nil
}

func (f *StratifiedKFold) Name() string {
	return fmt.Sprintf("stratified(%d)", f.k)
}

func (f *StratifiedKFold) Folds(n int, y *dataset.Column) ([]Fold, error) {
	if y == nil {
		return nil, fmt.Errorf("stratified split needs a target column")
	}
	if y.Kind() != dataset.ColumnCategorical {
		return nil, fmt.Errorf("stratified split needs a categorical target, got %s", y.Kind())
	}
	if y.Len() != n {
		return nil, fmt.Errorf("target has %d rows, want %d", y.Len(), n)
	}
	if n < f.k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", n, f.k)
	}

	idx := order(n, f.opts)
	perLevel := map[string][]int{}
	for _, i := range idx {
		label := y.Label(i)
		perLevel[label] = append(perLevel[label], i)
	}

	tests := make([][]int, f.k)
	for _, level := range y.Levels() {
		for j, i := range perLevel[level] {
			tests[j%f.k] = append(tests[j%f.k], i)
		}
	}

	folds := make([]Fold, f.k)
	for i := range folds {
		inTest := make(map[int]bool, len(tests[i]))
		for _, t := range tests[i] {
			inTest[t] = true
		}
		train := make([]int, 0, n-len(tests[i]))
		for r := 0; r < n; r++ {
			if !inTest[r] {
				train = append(train, r)
			}
		}
		folds[i] = Fold{Train: train, Test: tests[i]}
	}
	return folds, nil
}

func order(n int, opts options) []int {
	if opts.shuffle {
		return rand.New(rand.NewSource(opts.seed)).Perm(n)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// chunkFolds cuts idx into k chunks; the first n%k chunks take one extra
// index each.
func chunkFolds(idx []int, k int) []Fold {
	n := len(idx)
	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		test := idx[start : start+size]
		train := make([]int, 0, n-size)
		train = append(train, idx[:start]...)
		train = append(train, idx[start+size:]...)
		folds[i] = Fold{Train: train, Test: test}
		start += size
	}
	return folds
}
