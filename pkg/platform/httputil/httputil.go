// Package httputil writes JSON responses and translates coded errors into
// HTTP statuses. Internal and integrity failures never leak their message.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "impactx/pkg/domain-errors"
)

// StatusFor maps a domain code onto an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorizedOracle:
		return http.StatusForbidden
	case dErrors.CodeConflict, dErrors.CodeDuplicateVote, dErrors.CodeAlreadyFinalized,
		dErrors.CodeAlreadyDisbursed, dErrors.CodeCampaignNotActive, dErrors.CodeDeadlineExceeded:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes {"error": code, "error_description": message}.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}
