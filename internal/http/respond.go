package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/retisha256/ecommerce/internal/service"
	"github.com/retisha256/ecommerce/internal/upload"
)

const internalErrorMessage = "Something went wrong!"

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondData writes {"success": true, "data": data} plus any extra top-level fields.
func respondData(w http.ResponseWriter, status int, data interface{}, extra map[string]interface{}) {
	body := map[string]interface{}{"success": true, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, status, body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"success": true, "message": message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// handleServiceError maps errors from the service and storage layers to HTTP
// status codes. Internal errors are logged and reported generically.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicateOrder),
		errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, service.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrEmptyFile):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		log.ErrorContext(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	respondError(w, status, err.Error())
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	respondError(w, http.StatusBadRequest, "invalid JSON body")
}
