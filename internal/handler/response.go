package handler

import (
	"encoding/json"
	"net/http"

	"studentperf/internal/model"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// studentResponse keeps "student" present as null when there is no record.
type studentResponse struct {
	OK      bool               `json:"ok"`
	Student *model.StudentView `json:"student"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}
