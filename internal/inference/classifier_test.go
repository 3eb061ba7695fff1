package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCategoryModel builds a two-class bundle over the test vocabulary:
// "Billing" responds to refund/loan, "Credit Card" to card/fraud.
func testCategoryModel() *CategoryModel {
	return &CategoryModel{
		Vectorizer: *testVectorizer(),
		Classifier: Classifier{
			Classes:    []string{"Billing", "Credit Card"},
			Weights:    [][]float64{{1, 0, 0.5, 0}, {0, 1, 0, 1}},
			Intercepts: []float64{0, 0},
		},
	}
}

// TestPredictCategory verifies end-to-end classification of raw text.
func TestPredictCategory(t *testing.T) {
	m := testCategoryModel()
	require.NoError(t, m.Validate())

	assert.Equal(t, "Billing", m.PredictCategory("refund for my loan payment"))
	assert.Equal(t, "Credit Card", m.PredictCategory("fraud charge on my card"))
}

// TestClassifierPredict_TieBreak verifies ties resolve to the earliest
// class so predictions stay deterministic.
func TestClassifierPredict_TieBreak(t *testing.T) {
	c := Classifier{
		Classes:    []string{"A", "B"},
		Weights:    [][]float64{{1}, {1}},
		Intercepts: []float64{0, 0},
	}
	assert.Equal(t, "A", c.Predict(Vector{0: 1}))
}

// TestClassifierPredict_Intercepts verifies the bias term participates
// in scoring: with an empty vector only intercepts decide.
func TestClassifierPredict_Intercepts(t *testing.T) {
	c := Classifier{
		Classes:    []string{"A", "B"},
		Weights:    [][]float64{{0}, {0}},
		Intercepts: []float64{-1, 2},
	}
	assert.Equal(t, "B", c.Predict(Vector{}))
}

// TestClassifierValidate covers the shape checks.
func TestClassifierValidate(t *testing.T) {
	bad := Classifier{Classes: []string{"A", "B"}, Weights: [][]float64{{1}}, Intercepts: []float64{0, 0}}
	assert.Error(t, bad.Validate())

	bad = Classifier{Classes: []string{"A"}, Weights: [][]float64{{1}}, Intercepts: nil}
	assert.Error(t, bad.Validate())

	empty := Classifier{}
	assert.Error(t, empty.Validate())
}

// TestCategoryModelValidate_DimensionMismatch rejects weight rows that
// do not match the vectorizer's feature space.
func TestCategoryModelValidate_DimensionMismatch(t *testing.T) {
	m := testCategoryModel()
	m.Classifier.Weights[0] = []float64{1, 2} // vectorizer has 4 features
	assert.Error(t, m.Validate())
}

// TestSlug pins the category → filename mapping.
func TestSlug(t *testing.T) {
	assert.Equal(t, "credit_card", Slug("Credit Card"))
	assert.Equal(t, "billing", Slug("Billing"))
	assert.Equal(t, "debt_collection_agency", Slug("Debt Collection Agency"))
}
