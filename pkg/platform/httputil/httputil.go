// Package httputil writes JSON responses and coded errors for the ops
// endpoints.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "qualityaudit/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps the error's code to a status. Internal errors never leak
// their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = describe(err)
	}
	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor returns the HTTP status of a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func describe(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
