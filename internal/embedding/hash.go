// ABOUTME: Deterministic feature-hashing embedder that needs no network or model files
// ABOUTME: Normalises text, hashes word and character n-grams into signed buckets, L2-normalises
package embedding

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/harper/driftcheck/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultHashDimension is used when no dimension is configured
const DefaultHashDimension = 256

const (
	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.25
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// HashEmbedder is a lexical embedding function. Texts sharing words and
// spelling land close together; it carries no semantic knowledge.
// Thread Safety: immutable after construction, safe for concurrent use.
type HashEmbedder struct {
	dim    int
	closed atomic.Bool
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder producing vectors of length dim
func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hash dimension must be positive, got %d", dim)
	}
	return &HashEmbedder{dim: dim}, nil
}

// Embed returns the L2-normalised feature vector for text.
// Text without any word characters maps to the zero vector.
func (h *HashEmbedder) Embed(text string) ([]float64, error) {
	if h.closed.Load() {
		return nil, models.NewEmbeddingError(h.Model(), len(text), ErrClosed)
	}
	if !utf8.ValidString(text) {
		return nil, models.NewEmbeddingError(h.Model(), len(text), errInvalidUTF8)
	}

	vec := make([]float64, h.dim)
	words := tokenize(text)

	for i, w := range words {
		h.add(vec, "w:"+w, unigramWeight)
		if i > 0 {
			h.add(vec, "b:"+words[i-1]+" "+w, bigramWeight)
		}
		for _, tri := range trigrams(w) {
			h.add(vec, "c:"+tri, trigramWeight)
		}
	}

	normalize(vec)
	return vec, nil
}

// Dimension returns the configured vector length
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// Model names the embedder and its dimension
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

// Close marks the embedder closed
func (h *HashEmbedder) Close() error {
	h.closed.Store(true)
	return nil
}

func (h *HashEmbedder) add(vec []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()

	idx := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// tokenize applies NFKC and full case folding, then splits on anything
// that is not a letter or digit
func tokenize(text string) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// trigrams returns the character trigrams of a word padded with boundary markers
func trigrams(word string) []string {
	runes := []rune("^" + word + "$")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= n
	}
}
