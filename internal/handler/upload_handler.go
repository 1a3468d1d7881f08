package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"studentperf/internal/service"
)

type Importer interface {
	Import(ctx context.Context, fileName string, r io.Reader) (*service.ImportReport, error)
}

type UploadHandler struct {
	uploadService Importer
	logger        *zap.Logger
}

func NewUploadHandler(uploadService Importer, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, logger: logger}
}

type importResponse struct {
	OK      bool                    `json:"ok"`
	Reports []*service.ImportReport `json:"reports"`
}

// Import loads every file of the multipart "files" field into the roster,
// one after the other. A file that fails does not stop the rest; its report
// carries the error.
func (h *UploadHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(DefaultBodyLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	reports := make([]*service.ImportReport, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			h.logger.Error("open uploaded file", zap.String("file", fh.Filename), zap.Error(err))
			reports = append(reports, &service.ImportReport{
				FileName: fh.Filename,
				Status:   service.ImportError,
				Error:    "could not open upload",
			})
			continue
		}

		report, err := h.uploadService.Import(r.Context(), fh.Filename, file)
		file.Close()
		if err != nil {
			h.logger.Warn("import failed", zap.String("file", fh.Filename), zap.Error(err))
		}
		if report != nil {
			reports = append(reports, report)
		}
	}

	writeJSON(w, http.StatusOK, importResponse{OK: true, Reports: reports})
}
