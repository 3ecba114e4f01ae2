package dataset

import (
	"fmt"
	"strconv"
)

type ColumnKind int

const (
	ColumnNumeric ColumnKind = iota
	ColumnCategorical
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnNumeric:
		return "numeric"
	case ColumnCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a target vector: either numeric values or categorical labels.
// A categorical column remembers its full level set, and Select preserves it,
// so a subset of rows still declares every class the parent column had.
type Column struct {
	kind   ColumnKind
	nums   []float64
	labels []string
	levels []string
}

func NewNumericColumn(values []float64) Column {
	return Column{kind: ColumnNumeric, nums: values}
}

func NewCategoricalColumn(labels []string) Column {
	var levels []string
	seen := map[string]bool{}
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}
	return Column{kind: ColumnCategorical, labels: labels, levels: levels}
}

func (c Column) Kind() ColumnKind {
	return c.kind
}

func (c Column) Len() int {
	if c.kind == ColumnCategorical {
		return len(c.labels)
	}
	return len(c.nums)
}

// Values returns the numeric values. For a categorical column it returns the
// level index of every label, which lets numeric learners consume it.
func (c Column) Values() []float64 {
	if c.kind == ColumnNumeric {
		return c.nums
	}
	idx := make(map[string]int, len(c.levels))
	for i, l := range c.levels {
		idx[l] = i
	}
	values := make([]float64, len(c.labels))
	for i, l := range c.labels {
		values[i] = float64(idx[l])
	}
	return values
}

func (c Column) Labels() []string {
	return c.labels
}

// Levels returns the distinct labels in first-seen order. Empty for numeric
// columns.
func (c Column) Levels() []string {
	return c.levels
}

func (c Column) Label(i int) string {
	return c.labels[i]
}

func (c Column) At(i int) float64 {
	return c.nums[i]
}

// Select returns the rows at idx in the given order. The level set of a
// categorical column is inherited from the parent, not re-derived.
func (c Column) Select(idx []int) Column {
	if c.kind == ColumnCategorical {
		labels := make([]string, 0, len(idx))
		for _, i := range idx {
			labels = append(labels, c.labels[i])
		}
		return Column{kind: ColumnCategorical, labels: labels, levels: c.levels}
	}
	nums := make([]float64, 0, len(idx))
	for _, i := range idx {
		nums = append(nums, c.nums[i])
	}
	return Column{kind: ColumnNumeric, nums: nums}
}

// Concat appends the rows of col to a copy of c. Both columns must have the
// same kind; the level set of the receiver wins.
func (c Column) Concat(col Column) (Column, error) {
	if c.kind != col.kind {
		return Column{}, fmt.Errorf("cannot concat %s column to %s column", col.kind, c.kind)
	}
	if c.kind == ColumnCategorical {
		labels := make([]string, 0, len(c.labels)+len(col.labels))
		labels = append(labels, c.labels...)
		labels = append(labels, col.labels...)
		return Column{kind: ColumnCategorical, labels: labels, levels: c.levels}, nil
	}
	nums := make([]float64, 0, len(c.nums)+len(col.nums))
	nums = append(nums, c.nums...)
	nums = append(nums, col.nums...)
	return Column{kind: ColumnNumeric, nums: nums}, nil
}

func (c Column) Equal(col Column) bool {
	if c.kind != col.kind || c.Len() != col.Len() {
		return false
	}
	if c.kind == ColumnCategorical {
		for i := range c.labels {
			if c.labels[i] != col.labels[i] {
				return false
			}
		}
		return true
	}
	for i := range c.nums {
		if c.nums[i] != col.nums[i] {
			return false
		}
	}
	return true
}

// ParseColumn builds a numeric column when every raw value parses as a
// float, and a categorical column otherwise.
func ParseColumn(raw []string) Column {
	nums := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return NewCategoricalColumn(raw)
		}
		nums[i] = v
	}
	return NewNumericColumn(nums)
}
