package core

import "math"

// SimilarityFunc scores a pair of vectors. Higher values mean more similar.
type SimilarityFunc func(a, b []float32) float64

// Predefined similarity functions
var (
	// CosineSimilarity calculates cosine similarity between two vectors
	CosineSimilarity SimilarityFunc = cosineSimilarity

	// DotProduct calculates dot product between two vectors
	DotProduct SimilarityFunc = dotProduct

	// EuclideanDist calculates negative Euclidean distance (higher = more similar)
	EuclideanDist SimilarityFunc = euclideanDistance
)

// cosineSimilarity calculates cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Zero vectors have no direction
	if normA == 0.0 || normB == 0.0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// dotProduct calculates the dot product between two vectors.
func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var result float64
	for i := 0; i < len(a); i++ {
		result += float64(a[i]) * float64(b[i])
	}

	return result
}

// euclideanDistance calculates negative Euclidean distance for similarity
// ranking, so higher values indicate more similarity.
func euclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return -math.Inf(1)
	}

	var sum float64
	for i := 0; i < len(a); i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}

	return -math.Sqrt(sum)
}
