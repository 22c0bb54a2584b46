// Package httpapi exposes the storefront's HTTP surface: catalog reads,
// sync triggers, cart sessions, push fan-out, and the cached asset proxy.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// jsonError is the error envelope shared by every endpoint. Error carries a
// stable machine-readable code; Details is free-form and may be empty.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes the error envelope with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: code, Details: details})
}
