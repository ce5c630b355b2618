// Package respond holds the shared HTTP response helpers: problem-style
// error bodies, JSON encoding, and strict request decoding.
package respond

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 style error body.
type Problem struct {
	Title  string              `json:"title,omitempty"`
	Status int                 `json:"status,omitempty"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// WriteProblem writes a problem+json error response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeStrict decodes the request body into v, rejecting unknown fields.
func DecodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
