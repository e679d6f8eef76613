package store

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// NameVector embeds a node name as a hashed bag of character unigrams and
// bigrams, L2-normalised to unit length. Names that share characters land
// close together, which is enough to surface spelling variants across
// documents. An empty name yields the zero vector.
func NameVector(name string, dim int) []float32 {
	vec := make([]float32, dim)
	if dim <= 0 {
		return vec
	}

	runes := make([]rune, 0, len(name))
	for _, r := range strings.ToLower(name) {
		if !unicode.IsSpace(r) {
			runes = append(runes, r)
		}
	}

	add := func(gram string, weight float32) {
		h := fnv.New32a()
		h.Write([]byte(gram))
		sum := h.Sum32()
		idx := int(sum % uint32(dim))
		// The top bit picks the sign so collisions partly cancel.
		if sum&(1<<31) != 0 {
			vec[idx] -= weight
		} else {
			vec[idx] += weight
		}
	}
	for i, r := range runes {
		add(string(r), 1)
		if i+1 < len(runes) {
			add(string(runes[i:i+2]), 2)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
