// Package httputil provides small JSON request/response helpers shared
// by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape of every error response: {"error": "..."}.
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON encodes v as the response body with the given status code.
// Encoding failures are swallowed: headers are already written by then,
// and there is nothing useful left to send the client.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error response with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorBody{Error: message})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// InternalError writes a 500 response with the given message. Callers
// log the underlying error; the client only sees the message.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// DecodeJSON decodes the request body into v. Returns false when the
// body is empty or not valid JSON; the caller decides what error to
// send since the right message depends on the endpoint's contract.
func DecodeJSON(r *http.Request, v any) bool {
	if r.Body == nil {
		return false
	}
	return json.NewDecoder(r.Body).Decode(v) == nil
}
