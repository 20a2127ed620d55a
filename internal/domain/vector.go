package domain

import "sort"

// SparseVector is a bag-of-terms embedding: parallel slices of term indices
// and weights. The backing index requires indices to be ascending and unique.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// IsEmpty reports whether the vector has no components.
func (v SparseVector) IsEmpty() bool { return len(v.Indices) == 0 }

// Normalized returns a copy with duplicate indices merged additively and
// components sorted ascending by index. The receiver is not modified.
func (v SparseVector) Normalized() SparseVector {
	if len(v.Indices) == 0 {
		return SparseVector{}
	}

	merged := make(map[uint32]float32, len(v.Indices))
	for i, idx := range v.Indices {
		merged[idx] += v.Values[i]
	}

	out := SparseVector{
		Indices: make([]uint32, 0, len(merged)),
		Values:  make([]float32, 0, len(merged)),
	}
	for idx := range merged {
		out.Indices = append(out.Indices, idx)
	}
	sort.Slice(out.Indices, func(i, j int) bool { return out.Indices[i] < out.Indices[j] })
	for _, idx := range out.Indices {
		out.Values = append(out.Values, merged[idx])
	}
	return out
}
