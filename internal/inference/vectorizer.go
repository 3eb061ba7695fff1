package inference

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Vector is a sparse TF-IDF representation of a document: feature index
// to weight, with absent indexes meaning zero.
type Vector map[int]float64

// Vectorizer converts raw text into L2-normalized TF-IDF vectors.
//
// The tokenizer matches the conventional word-feature definition:
// lowercase runs of letters, digits, and underscores at least two
// characters long. Tokens outside the vocabulary are dropped.
type Vectorizer struct {
	// Vocabulary maps a token to its feature index.
	Vocabulary map[string]int `json:"vocabulary"`

	// IDF holds the inverse document frequency per feature index.
	// Must have one entry per vocabulary term.
	IDF []float64 `json:"idf"`
}

// Validate checks internal consistency between vocabulary and IDF table.
func (v *Vectorizer) Validate() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("vectorizer: empty vocabulary")
	}
	for token, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("vectorizer: token %q has index %d outside idf table (len %d)", token, idx, len(v.IDF))
		}
	}
	return nil
}

// Dim returns the dimensionality of produced vectors.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform converts text into a sparse L2-normalized TF-IDF vector.
// Unknown tokens contribute nothing; an input with no known tokens
// yields an empty vector.
func (v *Vectorizer) Transform(text string) Vector {
	vec := make(Vector)

	for _, token := range Tokenize(text) {
		idx, ok := v.Vocabulary[token]
		if !ok {
			continue
		}
		// Raw term count times idf; normalization follows below.
		vec[idx] += v.IDF[idx]
	}

	// L2 normalization so documents of different lengths are comparable.
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum > 0 {
		norm := math.Sqrt(sum)
		for idx, w := range vec {
			vec[idx] = w / norm
		}
	}

	return vec
}

// Tokenize splits text into lowercase word tokens: maximal runs of
// letters, digits, and underscores, keeping only runs of two or more
// runes. Exported so artifact authors can verify their vocabularies
// against the exact tokenization the service applies.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	runes := 0

	flush := func() {
		if runes >= 2 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		runes = 0
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// Dot computes the dot product between the sparse vector and a dense
// weight row. Rows shorter than the vector's highest index are treated
// as zero-padded.
func (vec Vector) Dot(row []float64) float64 {
	var sum float64
	for idx, w := range vec {
		if idx < len(row) {
			sum += w * row[idx]
		}
	}
	return sum
}

// Norm2 returns the squared L2 norm of the vector.
func (vec Vector) Norm2() float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return sum
}
