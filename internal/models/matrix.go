// ABOUTME: Similarity matrix over the unordered pairs of a text batch
// ABOUTME: Built fresh per evaluation call, one entry per pair (i < j)
package models

// PairScore is the similarity of texts I and J, with I < J
type PairScore struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Score float64 `json:"score"`
}

// SimilarityMatrix holds C(Size, 2) pair scores ordered by (I, J)
type SimilarityMatrix struct {
	Size  int         `json:"size"`
	Pairs []PairScore `json:"pairs"`
}

// Len returns the number of pairs
func (m SimilarityMatrix) Len() int {
	return len(m.Pairs)
}

// Scores returns the pair scores in matrix order
func (m SimilarityMatrix) Scores() []float64 {
	scores := make([]float64, len(m.Pairs))
	for i, p := range m.Pairs {
		scores[i] = p.Score
	}
	return scores
}

// Get returns the score for the unordered pair {i, j}
func (m SimilarityMatrix) Get(i, j int) (float64, bool) {
	if i == j || i < 0 || j < 0 || i >= m.Size || j >= m.Size {
		return 0, false
	}
	if i > j {
		i, j = j, i
	}
	// Row i starts after all pairs of rows 0..i-1
	idx := i*(2*m.Size-i-1)/2 + (j - i - 1)
	if idx >= len(m.Pairs) {
		return 0, false
	}
	p := m.Pairs[idx]
	if p.I != i || p.J != j {
		return 0, false
	}
	return p.Score, true
}

// PairCount returns C(n, 2), zero for n < 2
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
