// Package sparse provides a deterministic local bag-of-words encoder used
// when the remote sparse-embedding provider is unavailable. Same input text
// always yields the same vector: no randomness, no external state.
package sparse

import (
	"hash/crc32"
	"strings"
	"unicode"

	"github.com/kailas-cloud/ragstore/internal/domain"
)

// Buckets is the fixed size of the hashed term space. Distinct terms may
// collide; colliding weights are summed, never dropped.
const Buckets = 200000

// Encode computes a term-frequency sparse vector for text: terms are
// lowercased, weighted by frequency relative to the most frequent term
// (range (0,1]), and hashed to a stable index modulo Buckets. The returned
// indices are ascending and unique, as the backing store requires.
func Encode(text string) domain.SparseVector {
	terms := tokenize(text)
	if len(terms) == 0 {
		return domain.SparseVector{}
	}

	freq := make(map[string]int, len(terms))
	maxFreq := 0
	for _, t := range terms {
		freq[t]++
		if freq[t] > maxFreq {
			maxFreq = freq[t]
		}
	}

	v := domain.SparseVector{
		Indices: make([]uint32, 0, len(freq)),
		Values:  make([]float32, 0, len(freq)),
	}
	for term, count := range freq {
		v.Indices = append(v.Indices, crc32.ChecksumIEEE([]byte(term))%Buckets)
		v.Values = append(v.Values, float32(count)/float32(maxFreq))
	}

	// Normalized merges hash collisions additively and sorts by index.
	return v.Normalized()
}

// tokenize lowercases text and splits on non-word boundaries.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
