package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/pridato/vidgen/internal/ports"
)

const DefaultHashingDim = 256

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Hashing is an offline embedder: lower-cased words and word bigrams are
// hashed into a fixed number of signed buckets and the vector is L2
// normalized. Equal texts always produce equal vectors.
type Hashing struct {
	dim int
}

var _ ports.Embedder = (*Hashing)(nil)

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float64 {
	v := make([]float64, h.dim)
	words := wordRE.FindAllString(strings.ToLower(text), -1)
	for i, w := range words {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, words[i-1]+" "+w, 0.5)
		}
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func (h *Hashing) add(v []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}
