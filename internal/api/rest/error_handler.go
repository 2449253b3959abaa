package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/infrastructure/repository"
)

// ErrorResponse is the envelope for error responses
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code and human message
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeError maps an error to an HTTP response
func writeError(w http.ResponseWriter, err error) {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	switch {
	case repository.IsNotFound(err):
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, context.Canceled):
		writeErrorResponse(w, http.StatusRequestTimeout, "REQUEST_CANCELED", "Request was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorResponse(w, http.StatusRequestTimeout, "REQUEST_TIMEOUT", "Request timed out")
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
