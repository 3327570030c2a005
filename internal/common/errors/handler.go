package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPStatus maps an error code class to the HTTP status the route returns.
// Per-recipient transport and per-record errors never reach this mapping:
// they are recovered inside the trigger and reported in the response body.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeCronSecretMissing, ErrCodeInternal,
		ErrCodeStoreQueryFailed, ErrCodeStoreUpdateFailed:
		return http.StatusInternalServerError
	case ErrCodeUnauthorized, ErrCodeSessionInvalid:
		return http.StatusUnauthorized
	case ErrCodeValidationFailed, ErrCodeInvalidReportType, ErrCodeInvalidMonthFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes err as a JSON error response. StandardError drives the
// status; anything else is a 500 with the raw message.
func WriteHTTP(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		w.WriteHeader(HTTPStatus(stdErr.Code))
		json.NewEncoder(w).Encode(map[string]string{"error": stdErr.Message})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
