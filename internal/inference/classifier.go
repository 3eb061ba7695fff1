package inference

import (
	"fmt"
	"strings"
)

// Classifier is a linear one-vs-rest text classifier: one weight row
// and intercept per class, argmax of the decision scores wins.
type Classifier struct {
	// Classes holds the class labels, index-aligned with Weights and
	// Intercepts.
	Classes []string `json:"classes"`

	// Weights holds one dense weight row per class over the vectorizer's
	// feature space.
	Weights [][]float64 `json:"weights"`

	// Intercepts holds the per-class bias terms.
	Intercepts []float64 `json:"intercepts"`
}

// Validate checks that classes, weight rows, and intercepts line up.
func (c *Classifier) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classifier: no classes")
	}
	if len(c.Weights) != len(c.Classes) {
		return fmt.Errorf("classifier: %d weight rows for %d classes", len(c.Weights), len(c.Classes))
	}
	if len(c.Intercepts) != len(c.Classes) {
		return fmt.Errorf("classifier: %d intercepts for %d classes", len(c.Intercepts), len(c.Classes))
	}
	return nil
}

// Predict returns the class with the highest decision score for the
// vector. Ties resolve to the earliest class, keeping predictions
// deterministic.
func (c *Classifier) Predict(vec Vector) string {
	best := 0
	bestScore := vec.Dot(c.Weights[0]) + c.Intercepts[0]

	for i := 1; i < len(c.Classes); i++ {
		score := vec.Dot(c.Weights[i]) + c.Intercepts[i]
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	return c.Classes[best]
}

// CategoryModel bundles a vectorizer with the classifier trained on its
// feature space, so callers hand in raw text and get a category back.
type CategoryModel struct {
	Vectorizer Vectorizer `json:"vectorizer"`
	Classifier Classifier `json:"classifier"`
}

// Validate checks both halves of the bundle and their dimensional fit.
func (m *CategoryModel) Validate() error {
	if err := m.Vectorizer.Validate(); err != nil {
		return err
	}
	if err := m.Classifier.Validate(); err != nil {
		return err
	}
	for i, row := range m.Classifier.Weights {
		if len(row) != m.Vectorizer.Dim() {
			return fmt.Errorf("classifier: weight row %d has %d features, vectorizer has %d",
				i, len(row), m.Vectorizer.Dim())
		}
	}
	return nil
}

// PredictCategory classifies raw text.
func (m *CategoryModel) PredictCategory(text string) string {
	return m.Classifier.Predict(m.Vectorizer.Transform(text))
}

// Slug converts a category label into the filename-safe form used to
// locate its risk model: lowercase with spaces replaced by underscores,
// e.g. "Credit Card" → "credit_card".
func Slug(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, " ", "_"))
}
