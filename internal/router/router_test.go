package router_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studentperf/internal/auth"
	"studentperf/internal/config"
	"studentperf/internal/handler"
	"studentperf/internal/repository"
	"studentperf/internal/router"
	"studentperf/internal/service"
)

type testServer struct {
	handler http.Handler
	cookie  *http.Cookie
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	students := service.NewStudentService(repository.NewMemoryStudentRepository(), logger)
	require.NoError(t, students.SeedSample(context.Background()))
	uploads := service.NewUploadService(students, logger)

	gate, err := auth.NewGate(&config.AuthConfig{
		Username:   "admin",
		Password:   "12345",
		Secret:     "router-test-secret",
		BcryptCost: bcrypt.MinCost,
	}, auth.NewSessionStore())
	require.NoError(t, err)

	authHandler, err := handler.NewAuthHandler(gate, logger)
	require.NoError(t, err)

	h := router.Setup(&config.ServerConfig{Port: 5000}, router.Handlers{
		Students: handler.NewStudentHandler(students, logger),
		Exports:  handler.NewExportHandler(service.NewExportService(students, logger), logger),
		Uploads:  handler.NewUploadHandler(uploads, logger),
		Progress: handler.NewProgressHandler(uploads),
		Auth:     authHandler,
		Gate:     gate,
	}, logger)

	return &testServer{handler: h}
}

func (s *testServer) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"12345"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "/dashboard", rr.Header().Get("Location"))
	for _, c := range rr.Result().Cookies() {
		if c.Name == handler.SessionCookieName {
			s.cookie = c
		}
	}
	require.NotNil(t, s.cookie)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestUnauthenticated(t *testing.T) {
	s := setupRouter(t)

	tests := []struct {
		method string
		target string
		body   string
		want   string
	}{
		{http.MethodGet, "/api/students", "", `[]`},
		{http.MethodGet, "/api/students/summary", "", `{"ok":false}`},
		{http.MethodPost, "/api/student", `{"name":"X"}`, `{"ok":false}`},
		{http.MethodGet, "/api/student/1", "", `{"ok":false}`},
		{http.MethodPut, "/api/student/1", `{"name":"X"}`, `{"ok":false}`},
		{http.MethodDelete, "/api/student/1", "", `{"ok":false}`},
		{http.MethodGet, "/export", "", `{"ok":false}`},
		{http.MethodGet, "/api/import/progress", "", `{"ok":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := s.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, tt.want, rr.Body.String())
		})
	}

	// nothing changed
	s.login(t)
	rr := s.do(t, http.MethodGet, "/api/student/1", "")
	assert.Equal(t, "Aishwarya", decode(t, rr)["student"].(map[string]any)["name"])
}

func TestPages(t *testing.T) {
	s := setupRouter(t)

	rr := s.do(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid credentials")

	s.login(t)
	rr = s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

	rr = s.do(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestHealthz(t *testing.T) {
	s := setupRouter(t)
	rr := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestStudentLifecycle(t *testing.T) {
	s := setupRouter(t)
	s.login(t)

	rr := s.do(t, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 4)
	assert.Equal(t, 82.6, list[0]["avg"])
	assert.Equal(t, "A", list[0]["grade"])
	assert.Equal(t, "Pass", list[0]["status"])

	rr = s.do(t, http.MethodPost, "/api/student", `{"name":"Esha","roll":"CSB105","marks":[100,100,100,100,100,7]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	created := decode(t, rr)["student"].(map[string]any)
	assert.Equal(t, float64(5), created["id"])
	assert.Equal(t, "A+", created["grade"])
	assert.Len(t, created["marks"], 5)

	rr = s.do(t, http.MethodPut, "/api/student/5", `{"name":"Esha","roll":"CSB105","marks":{"Math":20}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode(t, rr)["student"].(map[string]any)
	assert.Equal(t, 4.0, updated["avg"])
	assert.Equal(t, "F", updated["grade"])
	assert.Equal(t, "Fail", updated["status"])
	assert.Equal(t, created["created_at"], updated["created_at"])

	rr = s.do(t, http.MethodPut, "/api/student/99", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"student":null}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/student", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodDelete, "/api/student/5", "")
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	rr = s.do(t, http.MethodDelete, "/api/student/5", "")
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/student/5", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"ok":false}`, rr.Body.String())

	// deleted ids are not handed out again
	rr = s.do(t, http.MethodPost, "/api/student", `{"name":"Farah","roll":"CSB106"}`)
	assert.Equal(t, float64(6), decode(t, rr)["student"].(map[string]any)["id"])

	rr = s.do(t, http.MethodGet, "/api/student/abc", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	s := setupRouter(t)
	s.login(t)

	rr := s.do(t, http.MethodGet, "/api/students/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode(t, rr)["summary"].(map[string]any)
	assert.Equal(t, float64(4), summary["count"])
	assert.Equal(t, float64(4), summary["passed"])
}

func TestExportGradeFilter(t *testing.T) {
	s := setupRouter(t)
	s.login(t)

	rr := s.do(t, http.MethodGet, "/export?grade=A%2B", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="students_\d{8}_\d{6}\.csv"$`, rr.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "name", "roll", "Math", "Physics", "Chemistry", "English", "Computer", "avg", "grade", "status"}, rows[0])
	assert.Equal(t, "Chitra", rows[1][1])
	assert.Equal(t, "93.4", rows[1][8])

	rr = s.do(t, http.MethodGet, "/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	s := setupRouter(t)
	s.login(t)

	rr := s.do(t, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	// the old cookie no longer works
	rr = s.do(t, http.MethodGet, "/api/students", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestImportFlow(t *testing.T) {
	s := setupRouter(t)
	s.login(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "batch.csv")
	require.NoError(t, err)
	part.Write([]byte("name,roll,Math,Physics,Chemistry,English,Computer\nGita,CSB301,60,60,60,60,60\n"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(s.cookie)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode(t, rr)
	assert.Equal(t, true, resp["ok"])
	reports := resp["reports"].([]any)
	require.Len(t, reports, 1)
	assert.Equal(t, service.ImportCompleted, reports[0].(map[string]any)["status"])

	rr = s.do(t, http.MethodGet, "/api/import/progress/file?fileName=batch.csv", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["imported"])

	rr = s.do(t, http.MethodGet, "/api/students", "")
	var list []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 5)
	assert.Equal(t, "C", list[4]["grade"])
}

func TestCORS(t *testing.T) {
	logger := zap.NewNop()
	students := service.NewStudentService(repository.NewMemoryStudentRepository(), logger)
	uploads := service.NewUploadService(students, logger)
	gate, err := auth.NewGate(&config.AuthConfig{Username: "a", Password: "b", Secret: "c", BcryptCost: bcrypt.MinCost}, auth.NewSessionStore())
	require.NoError(t, err)
	authHandler, err := handler.NewAuthHandler(gate, logger)
	require.NoError(t, err)

	h := router.Setup(&config.ServerConfig{CORS: config.CORSConfig{AllowOrigins: []string{"http://localhost:3000"}}}, router.Handlers{
		Students: handler.NewStudentHandler(students, logger),
		Exports:  handler.NewExportHandler(service.NewExportService(students, logger), logger),
		Uploads:  handler.NewUploadHandler(uploads, logger),
		Progress: handler.NewProgressHandler(uploads),
		Auth:     authHandler,
		Gate:     gate,
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
