package middleware

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes carried in every error body. Stable contract
// for clients; each auth failure kind keeps its own code.
const (
	CodeNoToken             = "NO_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeIdentityUnavailable = "IDENTITY_UNAVAILABLE"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeInsufficientRole    = "INSUFFICIENT_ROLE"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeStoreFault          = "STORE_FAULT"
	CodeNotFound            = "NOT_FOUND"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a machine-readable error body with the given status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: message, Code: code})
}

// WriteFieldError writes an error body that also names the offending field.
func WriteFieldError(w http.ResponseWriter, status int, code, message, field string) {
	WriteJSON(w, status, ErrorBody{Error: message, Code: code, Field: field})
}
