package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/usecase"
)

type ExportHandler struct {
	Export usecase.ExportService
	Logger *zap.Logger
}

func NewExportHandler(svc usecase.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{Export: svc, Logger: logger}
}

func (h *ExportHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	out, err := h.Export.Execute(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Body); err != nil {
		h.Logger.Warn("export write interrupted", zap.Error(err))
	}
}
