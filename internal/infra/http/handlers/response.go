package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/infra/http/middleware"
	"github.com/xavierca1/lead-crm/internal/usecase"
)

type ErrorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message,omitempty"`
	Details []usecase.ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string, details []usecase.ValidationError) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR"})
}

// handleError maps use case errors to HTTP responses. Anything that is not a
// DomainError is logged and hidden behind an opaque 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeValidation:
			writeErrorResponse(w, http.StatusBadRequest, de.Code, "validation failed", de.Fields)
		case usecase.CodeNotFound:
			writeErrorResponse(w, http.StatusNotFound, de.Code, "Lead not found", nil)
		case usecase.CodeEmailConflict:
			writeErrorResponse(w, http.StatusConflict, de.Code, de.Message, nil)
		default:
			writeErrorResponse(w, http.StatusBadRequest, de.Code, de.Message, nil)
		}
		return
	}

	fields := []zap.Field{zap.String("path", r.URL.Path), zap.Error(err)}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		fields = append(fields, zap.String("code", te.Code))
	}
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		fields = append(fields, zap.String("user_id", userID))
	}
	logger.Error("request failed", fields...)
	writeInternalError(w)
}

// decodeJSON reads a JSON body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "Invalid JSON", []usecase.ValidationError{
			{Field: "body", Message: "must be a valid JSON object"},
		})
		return false
	}
	return true
}

// ownerID returns the authenticated caller. Routes using it sit behind middleware.Auth.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
	}
	return id, ok
}
