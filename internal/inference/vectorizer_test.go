package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenize covers lowercasing, the two-rune minimum, and the
// letter/digit/underscore token alphabet.
func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"refund", "was", "denied"},
		Tokenize("Refund was DENIED!"))

	// Single-rune tokens are dropped ("a", "i").
	assert.Equal(t,
		[]string{"paid", "for", "it"},
		Tokenize("I paid for it"))

	// Digits and underscores are token characters; punctuation splits.
	assert.Equal(t,
		[]string{"acct_42", "overdrawn"},
		Tokenize("acct_42: overdrawn"))

	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("! ? ."))
}

// testVectorizer returns a small four-term vectorizer with uniform idf.
func testVectorizer() *Vectorizer {
	return &Vectorizer{
		Vocabulary: map[string]int{"refund": 0, "card": 1, "loan": 2, "fraud": 3},
		IDF:        []float64{1, 1, 1, 1},
	}
}

// TestTransform_L2Normalized verifies term counting, idf weighting, and
// the unit L2 norm of non-empty outputs.
func TestTransform_L2Normalized(t *testing.T) {
	v := testVectorizer()

	vec := v.Transform("refund refund loan")
	require.Len(t, vec, 2)

	// counts: refund=2, loan=1 → norm sqrt(5).
	assert.InDelta(t, 2/math.Sqrt(5), vec[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt(5), vec[2], 1e-9)
	assert.InDelta(t, 1.0, vec.Norm2(), 1e-9)
}

// TestTransform_UnknownTokens verifies out-of-vocabulary tokens
// contribute nothing and an all-unknown input yields an empty vector.
func TestTransform_UnknownTokens(t *testing.T) {
	v := testVectorizer()

	vec := v.Transform("refund zebra")
	assert.Len(t, vec, 1)
	assert.InDelta(t, 1.0, vec[0], 1e-9)

	assert.Empty(t, v.Transform("zebra giraffe"))
}

// TestTransform_IDFWeighting verifies that idf scales features before
// normalization.
func TestTransform_IDFWeighting(t *testing.T) {
	v := &Vectorizer{
		Vocabulary: map[string]int{"refund": 0, "card": 1},
		IDF:        []float64{3, 1},
	}

	vec := v.Transform("refund card")
	norm := math.Sqrt(9 + 1)
	assert.InDelta(t, 3/norm, vec[0], 1e-9)
	assert.InDelta(t, 1/norm, vec[1], 1e-9)
}

// TestVectorizerValidate rejects indexes outside the idf table and an
// empty vocabulary.
func TestVectorizerValidate(t *testing.T) {
	require.NoError(t, testVectorizer().Validate())

	bad := &Vectorizer{Vocabulary: map[string]int{"refund": 5}, IDF: []float64{1}}
	assert.Error(t, bad.Validate())

	empty := &Vectorizer{IDF: []float64{1}}
	assert.Error(t, empty.Validate())
}

// TestVectorDot verifies the sparse-dense dot product, including rows
// shorter than the highest feature index.
func TestVectorDot(t *testing.T) {
	vec := Vector{0: 0.5, 3: 2}

	assert.InDelta(t, 0.5*1+2*4, vec.Dot([]float64{1, 0, 0, 4}), 1e-9)
	// Short row: index 3 is zero-padded.
	assert.InDelta(t, 0.5, vec.Dot([]float64{1}), 1e-9)
}
