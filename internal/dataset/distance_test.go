package dataset

import "testing"

func TestChebyshevDistance(t *testing.T) {
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1},
		{name: "positive", p: []float64{10, 2.0}, p1: []float64{5, 3.0}, expected: 5},
		{name: "err", p: []float64{5, 2.0}, p1: []float64{3}, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ChebyshevDistance(test.p, test.p1)
			if test.name == "positive" {
				if err != nil {
					t.Errorf("the error should not be returned")
				}
				if got != test.expected {
					t.Errorf("distance = %f, expected %f", got, test.expected)
				}
			}
			if test.name == "err" && err == nil {
				t.Errorf("dimensions differ, expected %v", ErrDimNotEqual)
			}
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{0, 3}, p1: []float64{4, 0}, expected: 5},
		{name: "positive", p: []float64{1, 1}, p1: []float64{1, 1}, expected: 0},
		{name: "err", p: []float64{2.0}, p1: []float64{3, 4.0}, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := EuclideanDistance(test.p, test.p1)
			if test.name == "positive" {
				if err != nil {
					t.Errorf("the error should not be returned")
				}
				if got != test.expected {
					t.Errorf("distance = %f, expected %f", got, test.expected)
				}
			}
			if test.name == "err" && err == nil {
				t.Errorf("dimensions differ, expected %v", ErrDimNotEqual)
			}
		})
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{1, 2}, p1: []float64{3, 5}, expected: 5},
		{name: "err", p: []float64{1}, p1: []float64{1, 2}, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ManhattanDistance(test.p, test.p1)
			if test.name == "positive" {
				if err != nil {
					t.Errorf("the error should not be returned")
				}
				if got != test.expected {
					t.Errorf("distance = %f, expected %f", got, test.expected)
				}
			}
			if test.name == "err" && err == nil {
				t.Errorf("dimensions differ, expected %v", ErrDimNotEqual)
			}
		})
	}
}
