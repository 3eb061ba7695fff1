// Package inference implements the text classification pipeline served
// by the prediction API: TF-IDF vectorization, a linear category
// classifier, and per-category k-means risk scoring.
//
// Model parameters are plain JSON artifacts loaded from a model
// directory:
//
//	category_model.json            vectorizer + linear classifier bundle
//	tfidf.json                     shared vectorizer for risk scoring
//	risk_models/<slug>_kmeans.json cluster centroids for one category
//	risk_models/<slug>_risk_map.json cluster index → risk label
//
// The category bundle and shared vectorizer load eagerly (a service
// without them cannot start); risk models load lazily per category and
// are cached. A category with no risk model yields the "Unknown" risk
// label rather than an error.
package inference
