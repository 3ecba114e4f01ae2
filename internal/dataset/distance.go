package dataset

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// DistanceFn measures the distance between two feature vectors.
type DistanceFn func(vec, vec1 []float64) (float64, error)

const (
	DistanceEuclidean = "euclidean"
	DistanceChebyshev = "chebyshev"
	DistanceManhattan = "manhattan"
)

// DistanceFor maps a distance name to its function.
func DistanceFor(name string) (DistanceFn, error) {
	switch name {
	case DistanceEuclidean:
		return EuclideanDistance, nil
	case DistanceChebyshev:
		return ChebyshevDistance, nil
	case DistanceManhattan:
		return ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance %q", name)
	}
}

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		d += math.Pow(vec[i]-vec1[i], 2)
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	var absDistance, distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec1); i++ {
		absDistance = math.Abs(vec[i] - vec1[i])
		if distance < absDistance {
			distance = absDistance
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}
