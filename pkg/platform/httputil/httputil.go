// Package httputil writes JSON responses and maps domain errors to HTTP statuses.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "patientcore/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error            string                `json:"error"`
	ErrorDescription string                `json:"error_description,omitempty"`
	Fields           []dErrors.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes an ErrorResponse.
// Internal and unavailable errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	resp := ErrorResponse{Error: string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal && code != dErrors.CodeUnavailable {
		resp.ErrorDescription = de.Message
		resp.Fields = de.Fields
	}
	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a bounded JSON request body into T.
// Unknown fields are rejected so typos surface as bad requests.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return v, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return v, nil
}
