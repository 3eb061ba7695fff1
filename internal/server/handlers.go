package server

import (
	"fmt"
	"net/http"

	"github.com/riskline/mlship/internal/httputil"
)

// homeBanner is the plain-text liveness response on GET /.
const homeBanner = "ML API is running..."

// handleHome answers the root route with a plain-text banner. Kept as
// text (not JSON) because it doubles as a human smoke test.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, homeBanner)
}

// handlePredict classifies the request text into a category and risk
// label.
//
// Contract:
//   - missing, undecodable, or empty JSON body → 400 "No JSON received"
//   - no "description" field (falling back to "text"), or an empty
//     value → 400 "description is required"
//   - otherwise → 200 {"category": ..., "risk": ...}; categories
//     without a risk model report risk "Unknown"
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !httputil.DecodeJSON(r, &body) || len(body) == 0 {
		httputil.BadRequest(w, "No JSON received")
		return
	}

	text := stringField(body, "description")
	if text == "" {
		text = stringField(body, "text")
	}
	if text == "" {
		httputil.BadRequest(w, "description is required")
		return
	}

	pred, err := s.store.Predict(text)
	if err != nil {
		s.log.Error().Err(err).Msg("prediction failed")
		httputil.InternalError(w, "prediction failed")
		return
	}

	s.metrics.RecordPrediction(pred.Category, pred.Risk)
	httputil.WriteJSON(w, http.StatusOK, pred)
}

// stringField extracts a string value from a decoded JSON object,
// returning "" for absent keys and non-string values.
func stringField(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status   string `json:"status"`
	ModelDir string `json:"modelDir"`
}

// handleHealthz reports liveness. The store loaded its eager artifacts
// at startup or the process would not be serving, so reaching this
// handler at all means the pipeline is usable.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		ModelDir: s.store.Dir(),
	})
}
