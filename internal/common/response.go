package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrorBody is the error payload of every JSON response. Validation failures
// list the offending form fields.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Details any          `json:"details,omitempty"`
}

// WantsJSON reports whether the client asked for JSON, either through Accept
// or by posting a JSON body. Everything else gets HTML.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// JSON writes v as JSON. Responses describe one session's cart and account,
// so they are never stored by shared caches.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v inside the {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// NoContent answers a JSON mutation with nothing to return.
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

// JSONError writes {"error": {...}} with the given status.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteError maps err through AsAppError and writes it as JSON.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	body := ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	var verr *ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
		body.Details = nil
	}
	JSON(w, appErr.HTTPStatus, map[string]any{"error": body})
}
