package inference

import (
	"fmt"
	"math"
	"strconv"
)

// UnknownRisk is the risk label returned when a category has no risk
// model or a cluster has no mapping.
const UnknownRisk = "Unknown"

// KMeans holds fitted cluster centroids for one category's risk model.
type KMeans struct {
	// Centroids holds one dense centroid per cluster over the shared
	// TF-IDF feature space.
	Centroids [][]float64 `json:"centroids"`
}

// Validate checks the model has at least one centroid and consistent
// dimensionality across centroids.
func (k *KMeans) Validate() error {
	if len(k.Centroids) == 0 {
		return fmt.Errorf("kmeans: no centroids")
	}
	dim := len(k.Centroids[0])
	for i, c := range k.Centroids {
		if len(c) != dim {
			return fmt.Errorf("kmeans: centroid %d has %d features, centroid 0 has %d", i, len(c), dim)
		}
	}
	return nil
}

// Predict returns the index of the centroid nearest to the vector by
// squared Euclidean distance.
//
// With vec sparse and centroids dense, the distance decomposes as
// ||x||² - 2·x·c + ||c||², so only the centroid norm requires a pass
// over the full feature space.
func (k *KMeans) Predict(vec Vector) int {
	xNorm := vec.Norm2()

	best := 0
	bestDist := math.Inf(1)

	for i, centroid := range k.Centroids {
		var cNorm float64
		for _, w := range centroid {
			cNorm += w * w
		}
		dist := xNorm - 2*vec.Dot(centroid) + cNorm
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	return best
}

// RiskMap maps cluster indexes to risk labels. JSON object keys are
// strings, so the cluster index is stored in decimal form.
type RiskMap map[string]string

// Lookup returns the risk label for a cluster, or UnknownRisk when the
// cluster has no mapping.
func (m RiskMap) Lookup(cluster int) string {
	if label, ok := m[strconv.Itoa(cluster)]; ok {
		return label
	}
	return UnknownRisk
}

// riskModel pairs the centroids with their label mapping; this is what
// the store caches per category.
type riskModel struct {
	kmeans  KMeans
	mapping RiskMap
}

// score runs the risk half of the pipeline on an already-vectorized
// document.
func (r *riskModel) score(vec Vector) string {
	return r.mapping.Lookup(r.kmeans.Predict(vec))
}
