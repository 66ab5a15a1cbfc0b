// Package handlers provides HTTP handlers for the conversion API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/worker"
)

// Envelope wraps every response body.
type Envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	ErrorType string `json:"error_type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	env.RequestID = observability.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, r, http.StatusOK, Envelope{Code: 0, Message: "success", Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	writeJSON(w, r, status, Envelope{
		Code:      status,
		Message:   err.Error(),
		ErrorType: string(domain.TypeOf(err)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, worker.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeDocumentOpen, domain.ErrorTypeEmptyDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ValidationError("invalid request body", err)
	}
	return nil
}
