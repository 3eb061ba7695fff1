package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Artifact file names within the model directory.
const (
	categoryModelFile = "category_model.json"
	tfidfFile         = "tfidf.json"

	// riskModelDir holds the per-category artifacts, named
	// <slug>_kmeans.json and <slug>_risk_map.json.
	riskModelDir = "risk_models"
)

// errNoRiskModel signals that a category simply has no risk model,
// which is a normal condition answered with the Unknown label — unlike
// a present-but-corrupt artifact, which is an error.
var errNoRiskModel = errors.New("no risk model for category")

// Prediction is the result of running text through the full pipeline.
type Prediction struct {
	Category string `json:"category"`
	Risk     string `json:"risk"`
}

// Store loads model artifacts from a directory and serves predictions.
//
// The category bundle and the shared risk vectorizer load eagerly in
// Open — a service that cannot classify should fail at startup, not on
// the first request. Risk models load lazily per category and are
// cached for the life of the store.
type Store struct {
	dir string

	category *CategoryModel
	tfidf    *Vectorizer

	mu   sync.Mutex
	risk map[string]*riskModel
}

// Open loads the category bundle and shared vectorizer from dir and
// returns a ready store. Missing or invalid eager artifacts are fatal.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:  dir,
		risk: make(map[string]*riskModel),
	}

	var category CategoryModel
	if err := loadJSON(filepath.Join(dir, categoryModelFile), &category); err != nil {
		return nil, fmt.Errorf("failed to load category model: %w", err)
	}
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("invalid category model: %w", err)
	}
	s.category = &category

	var tfidf Vectorizer
	if err := loadJSON(filepath.Join(dir, tfidfFile), &tfidf); err != nil {
		return nil, fmt.Errorf("failed to load tfidf vectorizer: %w", err)
	}
	if err := tfidf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tfidf vectorizer: %w", err)
	}
	s.tfidf = &tfidf

	return s, nil
}

// Dir returns the model directory the store was opened from.
func (s *Store) Dir() string {
	return s.dir
}

// Predict runs the full pipeline: classify the text into a category,
// then score its risk with that category's model. Categories without a
// risk model produce the Unknown risk label, not an error.
func (s *Store) Predict(text string) (*Prediction, error) {
	category := s.category.PredictCategory(text)

	rm, err := s.riskModel(category)
	if errors.Is(err, errNoRiskModel) {
		return &Prediction{Category: category, Risk: UnknownRisk}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load risk model for category %q: %w", category, err)
	}

	return &Prediction{
		Category: category,
		Risk:     rm.score(s.tfidf.Transform(text)),
	}, nil
}

// riskModel returns the cached risk model for a category, loading it
// from disk on first use.
func (s *Store) riskModel(category string) (*riskModel, error) {
	slug := Slug(category)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rm, ok := s.risk[slug]; ok {
		return rm, nil
	}

	kmeansPath := filepath.Join(s.dir, riskModelDir, slug+"_kmeans.json")
	if _, err := os.Stat(kmeansPath); errors.Is(err, fs.ErrNotExist) {
		return nil, errNoRiskModel
	}

	var rm riskModel
	if err := loadJSON(kmeansPath, &rm.kmeans); err != nil {
		return nil, err
	}
	if err := rm.kmeans.Validate(); err != nil {
		return nil, err
	}

	// The mapping is required once centroids exist; a missing map is a
	// broken artifact set, not an absent model.
	mapPath := filepath.Join(s.dir, riskModelDir, slug+"_risk_map.json")
	if err := loadJSON(mapPath, &rm.mapping); err != nil {
		return nil, err
	}

	s.risk[slug] = &rm
	return &rm, nil
}

// loadJSON reads and decodes one artifact file.
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
