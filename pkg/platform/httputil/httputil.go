// Package httputil centralizes JSON encoding and domain-error translation so
// every handler produces the same envelopes.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	dErrors "specregistry/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are ignored:
// the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ToHTTPStatus maps a domain-error code to its response status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeRefNotFound:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a coded error as a JSON envelope. Internal errors omit
// the description so persistence details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if msg := dErrors.MessageOf(err); msg != "" && code != dErrors.CodeInternal {
		body["error_description"] = msg
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// QueryInt reads an integer query parameter, falling back on absence or
// garbage. Range policing is left to the consumer.
func QueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Decode parses a JSON request body into T, answering a bad_request envelope
// itself when the body is malformed. The second return is false when the
// caller should stop.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return v, false
	}
	return v, true
}
