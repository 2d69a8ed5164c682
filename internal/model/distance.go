package model

import "math"

// Metric computes the distance between two locations.
type Metric func(a, b Location) float64

// Euclidean is the default straight-line metric.
func Euclidean(a, b Location) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Manhattan is an alternative grid metric.
func Manhattan(a, b Location) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// BuildDistanceMatrix computes the full pairwise matrix for the given
// location order. A nil metric defaults to Euclidean. The result is
// symmetric with a zero diagonal and deterministic for a given input order.
func BuildDistanceMatrix(locations []Location, metric Metric) [][]float64 {
	if metric == nil {
		metric = Euclidean
	}
	n := len(locations)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := metric(locations[i], locations[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix
}
