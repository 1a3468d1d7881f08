package handler

import (
	"net/http"
	"path/filepath"

	"studentperf/internal/service"
)

type ProgressReader interface {
	GetFileProgress(fileName string) *service.ImportReport
	GetAllFileProgress() []*service.ImportReport
}

type ProgressHandler struct {
	uploadService ProgressReader
}

func NewProgressHandler(uploadService ProgressReader) *ProgressHandler {
	return &ProgressHandler{uploadService: uploadService}
}

// GetFileProgress returns the import report for one file
func (h *ProgressHandler) GetFileProgress(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		writeError(w, http.StatusBadRequest, "fileName parameter is required")
		return
	}

	progress := h.uploadService.GetFileProgress(filepath.Base(fileName))
	if progress == nil {
		writeError(w, http.StatusNotFound, "no import for this file")
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// GetAllProgress returns every import report
func (h *ProgressHandler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.uploadService.GetAllFileProgress())
}
