// Package distance provides the dissimilarity functions used by the search backends.
package distance

import "math"

// Metric computes a scalar dissimilarity between two vectors of equal length.
// Smaller values mean more similar.
type Metric func(a, b []float32) float64

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float32) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}

// SquaredEuclidean returns the squared L2 distance between a and b.
// It orders pairs the same way Euclidean does and skips the square root.
func SquaredEuclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// SquaredEuclidean64 is SquaredEuclidean for a float32 vector against a float64 one
// (build-time centroids are accumulated in float64).
func SquaredEuclidean64(a []float32, b []float64) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - b[i]
		sum += d * d
	}
	return sum
}

// Cosine returns the cosine distance 1 - cos(a, b), in [0, 2].
// A zero vector has no direction and is treated as maximally distant.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

// InnerProduct returns the dot product of a and b.
func InnerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
