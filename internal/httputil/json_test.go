package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteJSON verifies status, content type, and body encoding.
func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]string{"category": "Billing"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"category":"Billing"}`, rec.Body.String())
}

// TestErrorHelpers verifies the {"error": ...} wire shape.
func TestErrorHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "description is required")
	assert.Equal(t, 400, rec.Code)
	assert.JSONEq(t, `{"error":"description is required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	InternalError(rec, "prediction failed")
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"prediction failed"}`, rec.Body.String())
}

// TestDecodeJSON covers valid input, malformed input, and an empty body.
func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Description string `json:"description"`
	}

	req := httptest.NewRequest("POST", "/predict", strings.NewReader(`{"description":"late fee"}`))
	require.True(t, DecodeJSON(req, &payload))
	assert.Equal(t, "late fee", payload.Description)

	req = httptest.NewRequest("POST", "/predict", strings.NewReader(`{broken`))
	assert.False(t, DecodeJSON(req, &payload))

	req = httptest.NewRequest("POST", "/predict", strings.NewReader(""))
	assert.False(t, DecodeJSON(req, &payload))
}
