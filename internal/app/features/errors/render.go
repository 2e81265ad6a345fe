// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	DismissAfterMS int    `json:"dismiss_after_ms"`
}

type envelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, envelope{Error: errorBody{
		Code:           code,
		Message:        message,
		DismissAfterMS: DismissAfterMS,
	}})
}

// WriteValidation responds 422 with a field validation message.
func WriteValidation(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeValidation, message)
}

// NotFound is the router's fallback for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, CodeNotFound, "Not found.")
}

// MethodNotAllowed is the router's fallback for known routes hit with the
// wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed.")
}
