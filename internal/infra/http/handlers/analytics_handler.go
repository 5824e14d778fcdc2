package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/usecase"
)

type AnalyticsHandler struct {
	Analytics usecase.AnalyticsService
	Logger    *zap.Logger
}

func NewAnalyticsHandler(svc usecase.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: svc, Logger: logger}
}

func (h *AnalyticsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	days := usecase.DefaultAnalyticsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "validation failed", []usecase.ValidationError{
				{Field: "days", Message: "must be an integer"},
			})
			return
		}
		days = n
	}

	out, err := h.Analytics.Execute(r.Context(), userID, days)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}
