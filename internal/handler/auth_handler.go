package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"studentperf/internal/auth"
	"studentperf/internal/grading"
	"studentperf/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// AuthHandler serves the login and dashboard pages and owns the session
// cookie.
type AuthHandler struct {
	gate   SessionGate
	pages  *template.Template
	logger *zap.Logger
}

func NewAuthHandler(gate SessionGate, logger *zap.Logger) (*AuthHandler, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &AuthHandler{gate: gate, pages: pages, logger: logger}, nil
}

type loginPage struct {
	Error string
}

type dashboardPage struct {
	Username string
	Subjects []string
	Grades   []string
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// LoginPage shows the login form, or sends an authenticated client on to
// the dashboard.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, "login.html", loginPage{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", loginPage{Error: "Invalid credentials"})
		return
	}

	token, err := h.gate.Login(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Warn("login rejected", zap.String("ip", r.RemoteAddr))
		h.render(w, "login.html", loginPage{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		h.logger.Error("login", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "dashboard.html", dashboardPage{
		Username: session.Username,
		Subjects: model.Subjects,
		Grades:   grading.Grades,
	})
}

// Logout ends the server-side session, if any, and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		h.gate.Logout(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}
