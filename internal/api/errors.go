package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"go.uber.org/zap"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// badRequestError marks malformed request bodies and specs.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

// statusFor maps the domain error taxonomy to an HTTP status and code.
func statusFor(err error) (int, errorDetail) {
	var (
		invalid     *domain.InvalidInputError
		incomplete  *domain.IncompleteProfileError
		unsupported *domain.UnsupportedJurisdictionError
		limit       *domain.ComputationLimitError
		badRequest  *badRequestError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, errorDetail{Code: "invalid_input", Message: err.Error(), Field: invalid.Field}
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity, errorDetail{Code: "incomplete_profile", Message: err.Error(), Field: incomplete.Field}
	case errors.As(err, &unsupported):
		return http.StatusNotFound, errorDetail{Code: "unsupported_jurisdiction", Message: err.Error()}
	case errors.As(err, &limit):
		return http.StatusRequestEntityTooLarge, errorDetail{Code: "computation_limit", Message: err.Error(), Field: limit.Field}
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, errorDetail{Code: "bad_request", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorDetail{Code: "internal", Message: "internal error"}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	id := RequestIDFrom(r.Context())
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("request_id", id), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("request_id", id), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: detail, RequestID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
