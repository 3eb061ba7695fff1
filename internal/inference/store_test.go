package inference

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArtifact JSON-encodes v into the model directory, creating
// parents as needed.
func writeArtifact(t *testing.T, dir, rel string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// fixtureDir writes a complete artifact set: the two-class category
// bundle, the shared vectorizer, and a risk model for "Billing" only.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeArtifact(t, dir, "category_model.json", testCategoryModel())
	writeArtifact(t, dir, "tfidf.json", testVectorizer())

	// Billing risk model: cluster 0 sits on "refund", cluster 1 on "loan".
	writeArtifact(t, dir, "risk_models/billing_kmeans.json", KMeans{
		Centroids: [][]float64{{1, 0, 0, 0}, {0, 0, 1, 0}},
	})
	writeArtifact(t, dir, "risk_models/billing_risk_map.json", RiskMap{
		"0": "Low", "1": "High",
	})

	return dir
}

// TestOpen_MissingArtifacts verifies that a store cannot open without
// its eager artifacts — mirroring the fatal-at-start contract.
func TestOpen_MissingArtifacts(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category model")

	// Category model present but vectorizer missing.
	dir := t.TempDir()
	writeArtifact(t, dir, "category_model.json", testCategoryModel())
	_, err = Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tfidf")
}

// TestOpen_InvalidArtifact verifies that structurally broken artifacts
// are rejected at open time.
func TestOpen_InvalidArtifact(t *testing.T) {
	dir := t.TempDir()
	broken := testCategoryModel()
	broken.Classifier.Intercepts = []float64{0} // two classes, one intercept
	writeArtifact(t, dir, "category_model.json", broken)
	writeArtifact(t, dir, "tfidf.json", testVectorizer())

	_, err := Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category model")
}

// TestPredict_WithRiskModel verifies the full pipeline: category
// classification followed by k-means risk scoring.
func TestPredict_WithRiskModel(t *testing.T) {
	store, err := Open(fixtureDir(t))
	require.NoError(t, err)

	// "refund" lands in Billing near cluster 0 → Low.
	pred, err := store.Predict("refund for my purchase")
	require.NoError(t, err)
	assert.Equal(t, "Billing", pred.Category)
	assert.Equal(t, "Low", pred.Risk)

	// "loan" stays in Billing but lands near cluster 1 → High.
	pred, err = store.Predict("loan loan overdue")
	require.NoError(t, err)
	assert.Equal(t, "Billing", pred.Category)
	assert.Equal(t, "High", pred.Risk)
}

// TestPredict_NoRiskModel verifies the Unknown fallback: "Credit Card"
// has no risk artifacts in the fixture, which is a normal condition,
// not an error.
func TestPredict_NoRiskModel(t *testing.T) {
	store, err := Open(fixtureDir(t))
	require.NoError(t, err)

	pred, err := store.Predict("fraud on my card")
	require.NoError(t, err)
	assert.Equal(t, "Credit Card", pred.Category)
	assert.Equal(t, UnknownRisk, pred.Risk)
}

// TestPredict_UnmappedCluster verifies that a cluster missing from the
// risk map yields the Unknown label.
func TestPredict_UnmappedCluster(t *testing.T) {
	dir := fixtureDir(t)
	// Remove cluster 1 from the mapping.
	writeArtifact(t, dir, "risk_models/billing_risk_map.json", RiskMap{"0": "Low"})

	store, err := Open(dir)
	require.NoError(t, err)

	pred, err := store.Predict("loan loan overdue")
	require.NoError(t, err)
	assert.Equal(t, UnknownRisk, pred.Risk)
}

// TestPredict_BrokenRiskArtifacts verifies that centroids without a
// mapping file are an error (a broken artifact set), unlike a wholly
// absent risk model.
func TestPredict_BrokenRiskArtifacts(t *testing.T) {
	dir := fixtureDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "risk_models", "billing_risk_map.json")))

	store, err := Open(dir)
	require.NoError(t, err)

	_, err = store.Predict("refund for my purchase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk model")
}

// TestPredict_RiskModelCached verifies lazy loading happens once: after
// the first prediction the on-disk artifacts can disappear without
// affecting subsequent predictions for the same category.
func TestPredict_RiskModelCached(t *testing.T) {
	dir := fixtureDir(t)
	store, err := Open(dir)
	require.NoError(t, err)

	_, err = store.Predict("refund for my purchase")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "risk_models")))

	pred, err := store.Predict("refund again")
	require.NoError(t, err)
	assert.Equal(t, "Low", pred.Risk, "cached risk model should serve after artifacts vanish")
}

// TestKMeansPredict verifies nearest-centroid assignment and validation.
func TestKMeansPredict(t *testing.T) {
	km := KMeans{Centroids: [][]float64{{1, 0}, {0, 1}}}
	require.NoError(t, km.Validate())

	assert.Equal(t, 0, km.Predict(Vector{0: 1}))
	assert.Equal(t, 1, km.Predict(Vector{1: 1}))

	assert.Error(t, (&KMeans{}).Validate())
	assert.Error(t, (&KMeans{Centroids: [][]float64{{1}, {1, 2}}}).Validate())
}

// TestRiskMapLookup covers the mapped and unmapped cases.
func TestRiskMapLookup(t *testing.T) {
	m := RiskMap{"0": "Low", "2": "Critical"}
	assert.Equal(t, "Low", m.Lookup(0))
	assert.Equal(t, "Critical", m.Lookup(2))
	assert.Equal(t, UnknownRisk, m.Lookup(1))
}
