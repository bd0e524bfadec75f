package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/pratik-mahalle/adminservice/internal/api/handlers"
	"github.com/pratik-mahalle/adminservice/internal/api/router"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
	"github.com/pratik-mahalle/adminservice/internal/realtime"
	"github.com/pratik-mahalle/adminservice/internal/repository/memory"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/services"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

const adminToken = "admin-token"

var testAdmin = &auth.Principal{ID: "7f1b1e4c-0000-4000-8000-00000000a001", Email: "ops@example.com", UserType: auth.UserTypeAdmin}

// fakeAuth logs in ops@example.com/secret123 and records forgotten tokens
type fakeAuth struct {
	forgotten []string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if email != "ops@example.com" || password != "secret123" {
		return nil, errors.Unauthorized("Invalid credentials")
	}
	return &auth.LoginResult{
		User:  auth.LoginUser{ID: testAdmin.ID, Email: email, UserType: auth.UserTypeAdmin, IsActive: true},
		Token: adminToken,
	}, nil
}

func (f *fakeAuth) Forget(token string) {
	f.forgotten = append(f.forgotten, token)
}

type testServer struct {
	handler http.Handler
	fx      *testutil.Fixture
	auth    *fakeAuth
	hub     *realtime.Hub
}

func newTestServer(t *testing.T, environment string) *testServer {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()
	db := testutil.NewTestDB(t)
	policy := retry.Policy{Attempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	userRepo := postgres.NewUserRepository(db)
	users := services.NewUserService(userRepo, postgres.NewActivityRepository(db), policy, log)
	jobs := services.NewJobService(postgres.NewJobRepository(db), userRepo, policy, log)
	conversations := services.NewConversationService(postgres.NewConversationRepository(db), userRepo, nil, policy, log)
	schools := services.NewSchoolService(postgres.NewSchoolRepository(db), log)
	system := services.NewSystemService(postgres.NewSystemRepository(db), services.SystemCaches{}, "test", log)

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(nil, log)
	go hub.Run(ctx)
	t.Cleanup(cancel)

	alerts := services.NewAlertService(memory.NewAlertStore(100), nil, hub, nil, log)

	verifier := testutil.NewMockVerifier()
	verifier.Tokens[adminToken] = testAdmin
	fa := &fakeAuth{}

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: environment, FrontendURL: "http://localhost:3000"},
	}
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(system, "test", environment, log),
		Auth:         handlers.NewAuthHandler(fa, log, val),
		User:         handlers.NewUserHandler(users, jobs, conversations, log, val),
		School:       handlers.NewSchoolHandler(schools, log, val),
		Job:          handlers.NewJobHandler(jobs, log),
		Conversation: handlers.NewConversationHandler(conversations, log),
		System:       handlers.NewSystemHandler(system, log),
		Alert:        handlers.NewAlertHandler(alerts, log, val),
		WebSocket:    handlers.NewWebSocketHandler(hub, verifier, []string{"http://localhost:3000"}, log),
	}

	return &testServer{
		handler: router.New(cfg, log, verifier, h),
		fx:      testutil.NewFixture(t, db),
		auth:    fa,
		hub:     hub,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, "test")

	tests := []struct {
		path    string
		message string
	}{
		{"/health", "Service is healthy"},
		{"/health/live", "Service is alive"},
		{"/health/ready", "Service is ready"},
		{"/health/detailed", "Detailed health check completed"},
		{"/admin/health", "Service is healthy"},
		{"/readyz", "Service is ready"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, env := s.do(t, http.MethodGet, tt.path, nil, "")
			if code != http.StatusOK || !env.Success || env.Message != tt.message {
				t.Errorf("GET %s = %d %+v", tt.path, code, env)
			}
		})
	}
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, "test")

	code, env := s.do(t, http.MethodPost, "/admin/auth/login", map[string]string{"email": "not-an-email", "password": "x"}, "")
	if code != http.StatusBadRequest || env.Error.Code != errors.ErrCodeValidation {
		t.Errorf("invalid login = %d %s", code, env.Error.Code)
	}

	code, env = s.do(t, http.MethodPost, "/admin/auth/login", map[string]string{"email": "ops@example.com", "password": "wrong-pass"}, "")
	if code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/admin/auth/login", map[string]string{"email": "ops@example.com", "password": "secret123"}, "")
	if code != http.StatusOK || env.Message != "Login successful" {
		t.Fatalf("login = %d %+v", code, env)
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, env.Data, &login)
	if login.Token != adminToken {
		t.Errorf("token = %q", login.Token)
	}

	code, env = s.do(t, http.MethodGet, "/admin/auth/verify", nil, adminToken)
	if code != http.StatusOK || env.Message != "Token is valid" {
		t.Errorf("verify = %d %+v", code, env)
	}

	if code, _ = s.do(t, http.MethodGet, "/admin/auth/verify", nil, ""); code != http.StatusUnauthorized {
		t.Errorf("verify without token = %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/admin/auth/logout", nil, adminToken)
	if code != http.StatusOK || env.Message != "Logout successful" {
		t.Errorf("logout = %d %+v", code, env)
	}
	if len(s.auth.forgotten) != 1 || s.auth.forgotten[0] != adminToken {
		t.Errorf("forgotten = %v", s.auth.forgotten)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, "test")
	for _, path := range []string{"/admin/users", "/admin/jobs", "/admin/schools", "/admin/system/alerts", "/admin/chatbot/stats"} {
		code, env := s.do(t, http.MethodGet, path, nil, "")
		if code != http.StatusUnauthorized || env.Error.Code != errors.ErrCodeUnauthorized {
			t.Errorf("GET %s = %d %s", path, code, env.Error.Code)
		}
	}
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, "test")
	id := s.fx.User(testutil.UserRow{Email: "siswa@example.com", TokenBalance: 10})
	s.fx.User(testutil.UserRow{UserType: "admin"})

	code, env := s.do(t, http.MethodGet, "/admin/users?user_type=admin", nil, adminToken)
	if code != http.StatusOK {
		t.Fatalf("list = %d %+v", code, env)
	}
	var page struct {
		Users      []map[string]interface{} `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decode(t, env.Data, &page)
	if page.Pagination.Total != 1 || len(page.Users) != 1 {
		t.Errorf("admin users = %+v", page)
	}

	if code, env = s.do(t, http.MethodGet, "/admin/users?user_type=robot", nil, adminToken); code != http.StatusBadRequest {
		t.Errorf("bad user_type = %d", code)
	}
	if code, env = s.do(t, http.MethodGet, "/admin/users/not-a-uuid", nil, adminToken); code != http.StatusBadRequest || env.Error.Code != errors.ErrCodeValidation {
		t.Errorf("bad id = %d %s", code, env.Error.Code)
	}
	if code, _ = s.do(t, http.MethodGet, "/admin/users/"+testAdmin.ID, nil, adminToken); code != http.StatusNotFound {
		t.Errorf("missing user = %d", code)
	}

	code, env = s.do(t, http.MethodGet, "/admin/users/"+id, nil, adminToken)
	if code != http.StatusOK || env.Message != "User details retrieved successfully" {
		t.Errorf("detail = %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodPut, "/admin/users/"+id+"/tokens", map[string]interface{}{"amount": 5, "reason": "bonus"}, adminToken)
	if code != http.StatusOK || env.Message != "Token balance updated successfully" {
		t.Fatalf("credit = %d %+v", code, env)
	}
	var adj struct {
		NewBalance int64 `json:"newBalance"`
	}
	decode(t, env.Data, &adj)
	if adj.NewBalance != 15 {
		t.Errorf("newBalance = %d, want 15", adj.NewBalance)
	}

	code, env = s.do(t, http.MethodPut, "/admin/users/"+id+"/tokens", map[string]interface{}{"amount": -100}, adminToken)
	if code != http.StatusBadRequest || env.Error.Code != errors.ErrCodeInsufficientBalance {
		t.Errorf("overdraw = %d %s", code, env.Error.Code)
	}

	code, env = s.do(t, http.MethodGet, "/admin/users/"+id+"/tokens", nil, adminToken)
	if code != http.StatusOK {
		t.Fatalf("tokens = %d", code)
	}
	var history struct {
		CurrentBalance int64                    `json:"currentBalance"`
		History        []map[string]interface{} `json:"history"`
	}
	decode(t, env.Data, &history)
	if history.CurrentBalance != 15 || len(history.History) != 1 {
		t.Errorf("history = %+v", history)
	}

	code, env = s.do(t, http.MethodPut, "/admin/users/"+id, map[string]interface{}{"user_type": "wizard"}, adminToken)
	if code != http.StatusBadRequest || env.Error.Code != errors.ErrCodeValidation {
		t.Errorf("invalid update = %d %s", code, env.Error.Code)
	}
	code, env = s.do(t, http.MethodPut, "/admin/users/"+id, map[string]interface{}{"username": "renamed"}, adminToken)
	if code != http.StatusOK || env.Message != "User updated successfully" {
		t.Errorf("update = %d %+v", code, env)
	}
}

func TestUserSubresources(t *testing.T) {
	s := newTestServer(t, "test")
	id := s.fx.User(testutil.UserRow{})
	s.fx.Job(testutil.JobRow{UserID: id})
	s.fx.Job(testutil.JobRow{UserID: id, Status: "completed"})
	s.fx.Conversation(id, "hi", "active", time.Time{})

	code, env := s.do(t, http.MethodGet, "/admin/users/"+id+"/jobs", nil, adminToken)
	var jobs struct {
		Jobs []map[string]interface{} `json:"jobs"`
	}
	decode(t, env.Data, &jobs)
	if code != http.StatusOK || len(jobs.Jobs) != 2 {
		t.Errorf("user jobs = %d %d", code, len(jobs.Jobs))
	}

	code, env = s.do(t, http.MethodGet, "/admin/users/"+id+"/conversations", nil, adminToken)
	var convs struct {
		Conversations []map[string]interface{} `json:"conversations"`
	}
	decode(t, env.Data, &convs)
	if code != http.StatusOK || len(convs.Conversations) != 1 {
		t.Errorf("user conversations = %d %d", code, len(convs.Conversations))
	}
}

func TestSchoolRoutes(t *testing.T) {
	s := newTestServer(t, "test")

	code, env := s.do(t, http.MethodPost, "/admin/schools", map[string]string{"name": "SMA 5 Surabaya", "city": "Surabaya"}, adminToken)
	if code != http.StatusCreated || env.Message != "School created successfully" {
		t.Fatalf("create = %d %+v", code, env)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, env.Data, &created)
	path := fmt.Sprintf("/admin/schools/%d", created.ID)

	if code, env = s.do(t, http.MethodGet, path, nil, adminToken); code != http.StatusOK {
		t.Errorf("get = %d", code)
	}
	if code, env = s.do(t, http.MethodPut, path, map[string]string{"province": "Jawa Timur"}, adminToken); code != http.StatusOK || env.Message != "School updated successfully" {
		t.Errorf("update = %d %+v", code, env)
	}
	if code, env = s.do(t, http.MethodGet, "/admin/schools/abc", nil, adminToken); code != http.StatusBadRequest {
		t.Errorf("bad id = %d", code)
	}

	s.fx.Profile(s.fx.User(testutil.UserRow{}), "Siswa", &created.ID)
	if code, env = s.do(t, http.MethodDelete, path, nil, adminToken); code != http.StatusConflict {
		t.Errorf("delete with users = %d %s", code, env.Error.Code)
	}

	code, env = s.do(t, http.MethodPost, "/admin/schools", map[string]string{"name": "Kosong"}, adminToken)
	decode(t, env.Data, &created)
	if code, env = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/schools/%d", created.ID), nil, adminToken); code != http.StatusOK || env.Message != "School deleted successfully" {
		t.Errorf("delete = %d %+v", code, env)
	}
}

func TestJobRoutes(t *testing.T) {
	s := newTestServer(t, "test")
	owner := s.fx.User(testutil.UserRow{Email: "budi@example.com"})
	resultID := s.fx.Result(owner, `{"riasec":"RIA"}`)
	id := s.fx.Job(testutil.JobRow{JobID: "job_abc", UserID: owner, Status: "completed", ResultID: resultID})
	s.fx.Job(testutil.JobRow{UserID: s.fx.User(testutil.UserRow{}), Status: "failed"})

	code, env := s.do(t, http.MethodGet, "/admin/jobs?user_email=budi", nil, adminToken)
	var page struct {
		Jobs []struct {
			ID   string `json:"id"`
			User *struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"jobs"`
	}
	decode(t, env.Data, &page)
	if code != http.StatusOK || len(page.Jobs) != 1 || page.Jobs[0].ID != id || page.Jobs[0].User == nil {
		t.Errorf("filtered jobs = %d %+v", code, page)
	}

	if code, env = s.do(t, http.MethodGet, "/admin/jobs?status=bogus&date_from=yesterday", nil, adminToken); code != http.StatusBadRequest {
		t.Errorf("bad filters = %d", code)
	}
	var details map[string]string
	decode(t, env.Error.Details, &details)
	if details["status"] == "" || details["date_from"] == "" {
		t.Errorf("details = %+v", details)
	}

	if code, env = s.do(t, http.MethodGet, "/admin/jobs/"+id, nil, adminToken); code != http.StatusOK || env.Message != "Job details retrieved successfully" {
		t.Errorf("get = %d %+v", code, env)
	}
	if code, env = s.do(t, http.MethodGet, "/admin/jobs/job_abc/results", nil, adminToken); code != http.StatusOK || env.Message != "Job results retrieved successfully" {
		t.Errorf("results = %d %+v", code, env)
	}
	if code, _ = s.do(t, http.MethodGet, "/admin/jobs/job_missing/results", nil, adminToken); code != http.StatusNotFound {
		t.Errorf("missing results = %d", code)
	}
	if code, env = s.do(t, http.MethodGet, "/admin/jobs/stats", nil, adminToken); code != http.StatusOK || env.Message != "Job statistics retrieved successfully" {
		t.Errorf("stats = %d %+v", code, env)
	}
}

func TestConversationRoutes(t *testing.T) {
	s := newTestServer(t, "test")
	owner := s.fx.User(testutil.UserRow{})
	id := s.fx.Conversation(owner, "Kuliah", "active", time.Time{})
	s.fx.Message(id, "user", "Halo", time.Time{})

	for _, path := range []string{"/admin/conversations/" + id + "/chats", "/admin/conversations/" + id + "/messages"} {
		code, env := s.do(t, http.MethodGet, path, nil, adminToken)
		if code != http.StatusOK || env.Message != "Conversation chats retrieved successfully" {
			t.Errorf("GET %s = %d %+v", path, code, env)
		}
	}
	if code, env := s.do(t, http.MethodGet, "/admin/conversations?user_id="+owner, nil, adminToken); code != http.StatusOK || env.Message != "Conversations retrieved successfully" {
		t.Errorf("list = %d %+v", code, env)
	}
	if code, _ := s.do(t, http.MethodGet, "/admin/chatbot/models", nil, adminToken); code != http.StatusOK {
		t.Errorf("models = %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/admin/chatbot/stats", nil, adminToken); code != http.StatusOK {
		t.Errorf("stats = %d", code)
	}
}

func TestAlertRoutes(t *testing.T) {
	s := newTestServer(t, "test")

	code, env := s.do(t, http.MethodPost, "/admin/system/alerts/test", map[string]string{"severity": "warning"}, adminToken)
	if code != http.StatusOK || env.Message != "Test alert created successfully" {
		t.Fatalf("create test alert = %d %+v", code, env)
	}
	var created struct {
		ID       string                 `json:"id"`
		Type     string                 `json:"type"`
		Severity string                 `json:"severity"`
		Title    string                 `json:"title"`
		Status   string                 `json:"status"`
		Data     map[string]interface{} `json:"data"`
	}
	decode(t, env.Data, &created)
	if created.Type != "system" || created.Severity != "warning" || created.Title != "Test Alert" || created.Data["test"] != true {
		t.Errorf("created = %+v", created)
	}

	if code, env = s.do(t, http.MethodPost, "/admin/system/alerts/test", map[string]string{"severity": "apocalyptic"}, adminToken); code != http.StatusBadRequest {
		t.Errorf("invalid severity = %d", code)
	}

	for _, q := range []string{"status=dismissed", "severity=fatal", "type=disk"} {
		if code, env = s.do(t, http.MethodGet, "/admin/system/alerts?"+q, nil, adminToken); code != http.StatusBadRequest || env.Error.Code != errors.ErrCodeValidation {
			t.Errorf("list with %s = %d", q, code)
		}
	}

	code, env = s.do(t, http.MethodGet, "/admin/system/alerts?status=active", nil, adminToken)
	var page struct {
		Alerts     []map[string]interface{} `json:"alerts"`
		Pagination struct {
			Limit int `json:"limit"`
		} `json:"pagination"`
	}
	decode(t, env.Data, &page)
	if code != http.StatusOK || len(page.Alerts) != 1 || page.Pagination.Limit != 50 {
		t.Errorf("list = %d %+v", code, page)
	}

	base := "/admin/system/alerts/" + created.ID
	if code, env = s.do(t, http.MethodPost, base+"/acknowledge", nil, adminToken); code != http.StatusOK || env.Message != "Alert acknowledged successfully" {
		t.Errorf("acknowledge = %d %+v", code, env)
	}
	if code, env = s.do(t, http.MethodPost, base+"/acknowledge", nil, adminToken); code != http.StatusConflict || env.Error.Code != errors.ErrCodeInvalidState {
		t.Errorf("second acknowledge = %d %s", code, env.Error.Code)
	}
	code, env = s.do(t, http.MethodPost, base+"/resolve", map[string]string{"resolution": "disk cleaned"}, adminToken)
	var resolved struct {
		Status     string `json:"status"`
		ResolvedBy string `json:"resolvedBy"`
		Resolution string `json:"resolution"`
	}
	decode(t, env.Data, &resolved)
	if code != http.StatusOK || resolved.Status != "resolved" || resolved.ResolvedBy != testAdmin.ID || resolved.Resolution != "disk cleaned" {
		t.Errorf("resolve = %d %+v", code, resolved)
	}
	if code, _ = s.do(t, http.MethodPost, base+"/resolve", nil, adminToken); code != http.StatusConflict {
		t.Errorf("second resolve = %d", code)
	}
	if code, _ = s.do(t, http.MethodGet, "/admin/system/alerts/alert_missing", nil, adminToken); code != http.StatusNotFound {
		t.Errorf("missing alert = %d", code)
	}

	code, env = s.do(t, http.MethodGet, "/admin/system/alerts/stats", nil, adminToken)
	var stats struct {
		Total    int `json:"total"`
		Resolved int `json:"resolved"`
	}
	decode(t, env.Data, &stats)
	if code != http.StatusOK || stats.Total != 1 || stats.Resolved != 1 {
		t.Errorf("stats = %d %+v", code, stats)
	}
}

func TestTestAlertHiddenInProduction(t *testing.T) {
	s := newTestServer(t, "production")
	code, env := s.do(t, http.MethodPost, "/admin/system/alerts/test", nil, adminToken)
	if code != http.StatusNotFound && code != http.StatusMethodNotAllowed {
		t.Errorf("test alert in production = %d %+v", code, env)
	}
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, "test")
	tests := map[string]string{
		"/admin/system/health":    "System health retrieved successfully",
		"/admin/system/metrics":   "System metrics retrieved successfully",
		"/admin/system/database":  "Database health retrieved successfully",
		"/admin/system/resources": "System resources retrieved successfully",
	}
	for path, message := range tests {
		code, env := s.do(t, http.MethodGet, path, nil, adminToken)
		if code != http.StatusOK || env.Message != message {
			t.Errorf("GET %s = %d %+v", path, code, env)
		}
	}
}
