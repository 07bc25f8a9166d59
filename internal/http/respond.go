package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anneth/shop/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts a service error into an HTTP response.
// Unclassified errors are logged and answered without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		httpStatus = http.StatusNotFound
	case domain.KindConflict:
		httpStatus = http.StatusConflict
	case domain.KindValidation:
		httpStatus = http.StatusBadRequest
	case domain.KindExternalService:
		switch {
		case errors.Is(err, domain.ErrUpstreamTimeout):
			httpStatus = http.StatusGatewayTimeout
		case errors.Is(err, domain.ErrGatewayUnavailable):
			httpStatus = http.StatusServiceUnavailable
		default:
			httpStatus = http.StatusBadGateway
		}
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Something went wrong!")
		return
	}

	if httpStatus >= http.StatusInternalServerError {
		slog.WarnContext(r.Context(), "upstream failure", "path", r.URL.Path, "error", err)
	} else {
		slog.InfoContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", httpStatus, "error", err)
	}
	respondError(w, httpStatus, domain.CodeOf(err), domain.MessageOf(err))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
