// ABOUTME: Tests for SimilarityMatrix indexing
// ABOUTME: Verifies pair lookup is order-insensitive and bounds-checked
package models

import (
	"errors"
	"testing"
)

func buildMatrix(n int) SimilarityMatrix {
	m := SimilarityMatrix{Size: n}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Pairs = append(m.Pairs, PairScore{I: i, J: j, Score: float64(i*10 + j)})
		}
	}
	return m
}

func TestSimilarityMatrix_Get(t *testing.T) {
	m := buildMatrix(5)

	if m.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", m.Len())
	}

	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			got, ok := m.Get(i, j)
			if i == j {
				if ok {
					t.Errorf("Get(%d, %d) should not exist", i, j)
				}
				continue
			}
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			if !ok || got != float64(lo*10+hi) {
				t.Errorf("Get(%d, %d) = %v, %v; want %v, true", i, j, got, ok, float64(lo*10+hi))
			}
		}
	}

	if _, ok := m.Get(-1, 2); ok {
		t.Error("Get with negative index should fail")
	}
	if _, ok := m.Get(1, 5); ok {
		t.Error("Get out of range should fail")
	}
}

func TestSimilarityMatrix_Scores(t *testing.T) {
	m := buildMatrix(3)
	scores := m.Scores()
	want := []float64{1, 2, 12}
	if len(scores) != len(want) {
		t.Fatalf("Scores() len = %d, want %d", len(scores), len(want))
	}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("Scores()[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestPairCount(t *testing.T) {
	tests := map[int]int{0: 0, 1: 0, 2: 1, 3: 3, 4: 6, 10: 45}
	for n, want := range tests {
		if got := PairCount(n); got != want {
			t.Errorf("PairCount(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestEmbeddingError_MatchesSentinel(t *testing.T) {
	cause := errors.New("invalid utf-8")
	err := NewEmbeddingError("hash-256", 12, cause)

	if !errors.Is(err, ErrEmbeddingFailure) {
		t.Error("EmbeddingError should match ErrEmbeddingFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("EmbeddingError should unwrap to its cause")
	}

	var target *EmbeddingError
	if !errors.As(err, &target) || target.TextLen != 12 {
		t.Error("errors.As should recover the EmbeddingError")
	}
}

func TestInvalidThreshold(t *testing.T) {
	err := InvalidThreshold("threshold", 1.5)
	if !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("InvalidThreshold() = %v, want ErrInvalidThreshold", err)
	}
}
