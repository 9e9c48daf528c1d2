package storage

import (
	"math"
	"slices"
	"strings"

	"github.com/poiesic/codeindex/core"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length, or zero vectors, score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// RankResults sorts results by score (highest first, ties by id) and keeps topK.
func RankResults(results []core.SearchResult, topK int) []core.SearchResult {
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
