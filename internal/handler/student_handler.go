package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"studentperf/internal/grading"
	"studentperf/internal/model"
	"studentperf/internal/repository"
	"studentperf/internal/service"
)

// StudentService is the roster API the handlers need.
type StudentService interface {
	ListStudents(ctx context.Context) ([]model.Student, error)
	GetStudent(ctx context.Context, id int64) (*model.Student, error)
	CreateStudent(ctx context.Context, in model.StudentInput) (*model.Student, error)
	UpdateStudent(ctx context.Context, id int64, in model.StudentInput) (*model.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	Summary(ctx context.Context, f service.StudentFilter) (*grading.Summary, error)
}

type StudentHandler struct {
	studentService StudentService
	logger         *zap.Logger
}

func NewStudentHandler(studentService StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{studentService: studentService, logger: logger}
}

type summaryResponse struct {
	OK      bool             `json:"ok"`
	Summary *grading.Summary `json:"summary"`
}

func filterFromQuery(r *http.Request) service.StudentFilter {
	query := r.URL.Query()
	return service.StudentFilter{
		Search: query.Get("search"),
		Grade:  query.Get("grade"),
	}
}

// studentID reads the {id} route variable. The route pattern guarantees
// digits; values that overflow int64 cannot name a record.
func studentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

func decodeStudentInput(r *http.Request) (model.StudentInput, error) {
	var in model.StudentInput
	err := json.NewDecoder(r.Body).Decode(&in)
	return in, err
}

func (h *StudentHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("request_id", RequestIDFromContext(r.Context())))
	writeJSON(w, http.StatusInternalServerError, okResponse{OK: false})
}

func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListStudents(r.Context())
	if err != nil {
		h.internalError(w, r, "list students", err)
		return
	}
	writeJSON(w, http.StatusOK, model.Views(students))
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, okResponse{OK: false})
		return
	}

	student, err := h.studentService.GetStudent(r.Context(), id)
	if errors.Is(err, repository.ErrStudentNotFound) {
		writeJSON(w, http.StatusNotFound, okResponse{OK: false})
		return
	}
	if err != nil {
		h.internalError(w, r, "get student", err)
		return
	}

	view := student.View()
	writeJSON(w, http.StatusOK, studentResponse{OK: true, Student: &view})
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	in, err := decodeStudentInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, okResponse{OK: false})
		return
	}

	student, err := h.studentService.CreateStudent(r.Context(), in)
	if err != nil {
		h.internalError(w, r, "create student", err)
		return
	}

	view := student.View()
	writeJSON(w, http.StatusOK, studentResponse{OK: true, Student: &view})
}

// UpdateStudent replaces name, roll and marks. An unknown id is reported
// as {"ok":true,"student":null}.
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	in, err := decodeStudentInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, okResponse{OK: false})
		return
	}

	id, ok := studentID(r)
	if !ok {
		writeJSON(w, http.StatusOK, studentResponse{OK: true})
		return
	}

	student, err := h.studentService.UpdateStudent(r.Context(), id, in)
	if errors.Is(err, repository.ErrStudentNotFound) {
		writeJSON(w, http.StatusOK, studentResponse{OK: true})
		return
	}
	if err != nil {
		h.internalError(w, r, "update student", err)
		return
	}

	view := student.View()
	writeJSON(w, http.StatusOK, studentResponse{OK: true, Student: &view})
}

// DeleteStudent succeeds whether or not the id exists.
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if id, ok := studentID(r); ok {
		if err := h.studentService.DeleteStudent(r.Context(), id); err != nil {
			h.internalError(w, r, "delete student", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *StudentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.studentService.Summary(r.Context(), filterFromQuery(r))
	if err != nil {
		h.internalError(w, r, "summarize students", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{OK: true, Summary: summary})
}
