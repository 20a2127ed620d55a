// Package fusion merges independently retrieved dense and sparse candidate
// sets into one ranked list.
package fusion

import (
	"math"
	"sort"

	"github.com/kailas-cloud/ragstore/internal/domain/search/result"
)

// Weights is the process-wide fusion configuration, read at query time.
type Weights struct {
	Dense  float64
	Sparse float64
}

// Fuse combines dense and sparse matches into a single ranking:
// hybrid(d) = wDense*denseScore(d) + wSparse*log(1+rawSparseScore(d)).
// The log damps long-tail sparse score inflation; a candidate missing from
// one side scores 0 there but still participates. Metadata is taken from the
// dense match when present, the sparse match otherwise; ingestion writes
// identical payloads to both indexes. The sort is stable so equal scores
// keep their pre-sort relative order across repeated identical queries.
func Fuse(dense, sparse []result.Match, w Weights, topK int) []result.Result {
	denseScores := make(map[string]float64, len(dense))
	sparseScores := make(map[string]float64, len(sparse))
	payload := make(map[string]result.Match, len(dense)+len(sparse))

	for _, m := range dense {
		denseScores[m.ID()] = m.Score()
		payload[m.ID()] = m
	}
	for _, m := range sparse {
		sparseScores[m.ID()] = math.Log1p(m.Score())
		if _, ok := payload[m.ID()]; !ok {
			payload[m.ID()] = m
		}
	}

	// Union in first-seen order: dense ranking first, then sparse-only ids.
	ids := make([]string, 0, len(payload))
	seen := make(map[string]bool, len(payload))
	for _, m := range dense {
		if !seen[m.ID()] {
			seen[m.ID()] = true
			ids = append(ids, m.ID())
		}
	}
	for _, m := range sparse {
		if !seen[m.ID()] {
			seen[m.ID()] = true
			ids = append(ids, m.ID())
		}
	}

	fused := make([]result.Result, 0, len(ids))
	for _, id := range ids {
		d := denseScores[id]
		s := sparseScores[id]
		hybrid := w.Dense*d + w.Sparse*s
		fused = append(fused, result.New(id, payload[id].Metadata(), d, s, hybrid))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].HybridScore() > fused[j].HybridScore()
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}
