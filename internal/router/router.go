package router

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"studentperf/internal/config"
	"studentperf/internal/handler"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Students *handler.StudentHandler
	Exports  *handler.ExportHandler
	Uploads  *handler.UploadHandler
	Progress *handler.ProgressHandler
	Auth     *handler.AuthHandler
	Gate     handler.SessionGate
}

type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error(v...)
}

// Setup builds the route table and wraps it with the global middleware.
func Setup(cfg *config.ServerConfig, h Handlers, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(handler.RequestID, handler.RequestLogger(logger), handler.SecurityHeaders, handler.BodyLimit(handler.DefaultBodyLimit))
	r.Use(handler.Authenticate(h.Gate))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}` + "\n"))
	}).Methods(http.MethodGet)

	// pages
	r.HandleFunc("/", h.Auth.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/", h.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Auth.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/dashboard", h.Auth.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)

	requireList := handler.RequireSession([]struct{}{})
	require := handler.RequireSession(map[string]bool{"ok": false})

	r.Handle("/api/students", requireList(http.HandlerFunc(h.Students.ListStudents))).Methods(http.MethodGet)
	r.Handle("/api/students/summary", require(http.HandlerFunc(h.Students.Summary))).Methods(http.MethodGet)
	r.Handle("/api/student", require(http.HandlerFunc(h.Students.CreateStudent))).Methods(http.MethodPost)
	r.Handle("/api/student/{id:[0-9]+}", require(http.HandlerFunc(h.Students.GetStudent))).Methods(http.MethodGet)
	r.Handle("/api/student/{id:[0-9]+}", require(http.HandlerFunc(h.Students.UpdateStudent))).Methods(http.MethodPut)
	r.Handle("/api/student/{id:[0-9]+}", require(http.HandlerFunc(h.Students.DeleteStudent))).Methods(http.MethodDelete)

	r.Handle("/export", require(http.HandlerFunc(h.Exports.Export))).Methods(http.MethodGet)

	r.Handle("/api/import", require(http.HandlerFunc(h.Uploads.Import))).Methods(http.MethodPost)
	r.Handle("/api/import/progress", require(http.HandlerFunc(h.Progress.GetAllProgress))).Methods(http.MethodGet)
	r.Handle("/api/import/progress/file", require(http.HandlerFunc(h.Progress.GetFileProgress))).Methods(http.MethodGet)

	var root http.Handler = r
	if len(cfg.CORS.AllowOrigins) > 0 {
		root = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORS.AllowOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(root)
	}

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger.Sugar()}),
		handlers.PrintRecoveryStack(true),
	)(root)
}
