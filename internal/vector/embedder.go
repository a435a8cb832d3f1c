package vector

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// FeatureEmbedder produces deterministic vectors by hashing token features
// into a fixed number of buckets. It needs no model files or network access,
// which makes it the default for local deployments. Vectors are L2-normalized
// so cosine similarity reduces to a dot product.
type FeatureEmbedder struct {
	dimension int
}

// NewFeatureEmbedder creates an embedder with the given dimension.
// Dimensions below 16 are raised to the default of 256.
func NewFeatureEmbedder(dimension int) *FeatureEmbedder {
	if dimension < 16 {
		dimension = 256
	}
	return &FeatureEmbedder{dimension: dimension}
}

// Dimension returns the vector dimension.
func (e *FeatureEmbedder) Dimension() int {
	return e.dimension
}

// Embed converts text into a normalized feature vector. Each token and each
// adjacent token bigram is hashed into a bucket; the signed hash spreads
// features across both halves of the value range so unrelated texts do not
// drift toward a shared positive quadrant.
func (e *FeatureEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for i, tok := range tokens {
		e.addFeature(vec, tok)
		if i+1 < len(tokens) {
			e.addFeature(vec, tok+" "+tokens[i+1])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *FeatureEmbedder) addFeature(vec []float32, feature string) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()

	bucket := int(sum) % e.dimension
	if bucket < 0 {
		bucket += e.dimension
	}
	// Top bit picks the sign so buckets carry both directions.
	if sum&0x80000000 != 0 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

// tokenize lowercases text and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
