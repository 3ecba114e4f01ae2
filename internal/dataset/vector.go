package dataset

import (
	"math"
)

// Vector is a single row of numeric features.
type Vector []float64

func NewVector(values []float64) Vector {
	return values
}

func (v Vector) Dimensions() int {
	return len(v)
}

func (v Vector) At(idx int) float64 {
	return v[idx]
}

func (v Vector) Values() []float64 {
	return v
}

func (v Vector) Copy() Vector {
	v1 := make(Vector, len(v))
	copy(v1, v)
	return v1
}

func (v Vector) Sum() float64 {
	var s float64
	for i := range v {
		s += v[i]
	}
	return s
}

func (v Vector) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	return v.Sum() / float64(len(v))
}

func (v Vector) Min() float64 {
	min := math.MaxFloat64
	for i := range v {
		if v[i] < min {
			min = v[i]
		}
	}
	return min
}

func (v Vector) Max() float64 {
	max := -math.MaxFloat64
	for i := range v {
		if v[i] > max {
			max = v[i]
		}
	}
	return max
}

func (v Vector) Scale(value float64) {
	for i := range v {
		v[i] *= value
	}
}

func (v Vector) Apply(applyFn func(float64) float64) {
	for i := range v {
		v[i] = applyFn(v[i])
	}
}

func (v Vector) SizeEqual(vec Vector) bool {
	return len(v) == len(vec)
}

func (v Vector) Equal(vec Vector) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}
