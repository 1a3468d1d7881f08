package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"studentperf/internal/service"
)

type Exporter interface {
	Export(ctx context.Context, f service.StudentFilter, format string) (*service.ExportFile, error)
}

type ExportHandler struct {
	exportService Exporter
	logger        *zap.Logger
}

func NewExportHandler(exportService Exporter, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportService: exportService, logger: logger}
}

// Export sends the filtered roster as an attachment.
// GET /export?search=&grade=&format=csv|xlsx
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.exportService.Export(r.Context(), filterFromQuery(r), r.URL.Query().Get("format"))
	if err != nil {
		h.handleExportError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(file.Body.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := file.Body.WriteTo(w); err != nil {
		h.logger.Warn("write export", zap.Error(err), zap.String("file", file.Name))
	}
}

func (h *ExportHandler) handleExportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("export students", zap.Error(err), zap.String("request_id", RequestIDFromContext(r.Context())))
		writeJSON(w, http.StatusInternalServerError, okResponse{OK: false})
	}
}
