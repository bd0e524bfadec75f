//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pratik-mahalle/adminservice/internal/api/handlers"
	"github.com/pratik-mahalle/adminservice/internal/api/router"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
	"github.com/pratik-mahalle/adminservice/internal/realtime"
	"github.com/pratik-mahalle/adminservice/internal/repository/memory"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/services"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
	"github.com/pratik-mahalle/adminservice/internal/worker"
	"github.com/pratik-mahalle/adminservice/pkg/client"
)

const (
	adminEmail    = "ops@example.com"
	adminPassword = "secret123"
	adminToken    = "integration-admin-token"
)

// setupPostgres starts a throwaway Postgres and applies the development schemas
func setupPostgres(t *testing.T, ctx context.Context, driver string) *postgres.DB {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "futureguide",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.New(config.DatabaseConfig{
		Driver:       driver,
		Host:         host,
		Port:         port.Int(),
		Name:         "futureguide",
		User:         "test",
		Password:     "test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		QueryTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	n, err := postgres.Bootstrap(ctx, db)
	require.NoError(t, err)
	require.Positive(t, n)

	return db
}

// fakeAuthService answers login and verify-token like the platform auth service
func fakeAuthService(t *testing.T) *httptest.Server {
	t.Helper()
	write := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	admin := map[string]interface{}{"id": "7f1b1e4c-0000-4000-8000-00000000a001", "email": adminEmail, "user_type": "admin", "is_active": true}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if body["email"] != adminEmail || body["password"] != adminPassword {
			write(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"error":   map[string]string{"code": "UNAUTHORIZED", "message": "Invalid credentials"},
			})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"user": admin, "token": adminToken},
		})
	})
	mux.HandleFunc("/auth/verify-token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if body["token"] != adminToken {
			write(w, http.StatusUnauthorized, map[string]interface{}{"success": false})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"valid": true, "user": admin},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type stack struct {
	server *httptest.Server
	fx     *testutil.Fixture
	jobs   *postgres.JobRepository
	alerts *services.AlertService
	hub    *realtime.Hub
}

func newStack(t *testing.T, driver string) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := setupPostgres(t, ctx, driver)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	policy := retry.Policy{Attempts: 2, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2}

	authSrv := fakeAuthService(t)
	authClient := auth.NewClient(auth.Config{
		BaseURL:       authSrv.URL,
		ServiceKey:    "integration",
		VerifyTimeout: 2 * time.Second,
		LoginTimeout:  2 * time.Second,
		CacheTTL:      time.Minute,
	}, log)

	userRepo := postgres.NewUserRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	jobRepo := postgres.NewJobRepository(db)

	users := services.NewUserService(userRepo, activityRepo, policy, log)
	jobs := services.NewJobService(jobRepo, userRepo, policy, log)
	conversations := services.NewConversationService(postgres.NewConversationRepository(db), userRepo, nil, policy, log)
	schools := services.NewSchoolService(postgres.NewSchoolRepository(db), log)
	system := services.NewSystemService(postgres.NewSystemRepository(db), services.SystemCaches{}, "integration", log)

	hub := realtime.NewHub(func(ctx context.Context) (interface{}, error) { return jobs.Stats(ctx) }, log)
	go hub.Run(ctx)

	alerts := services.NewAlertService(memory.NewAlertStore(alert.DefaultCapacity), activityRepo, hub, nil, log)

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", FrontendURL: "http://localhost:3000"},
	}
	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(system, "integration", "test", log),
		Auth:         handlers.NewAuthHandler(authClient, log, val),
		User:         handlers.NewUserHandler(users, jobs, conversations, log, val),
		School:       handlers.NewSchoolHandler(schools, log, val),
		Job:          handlers.NewJobHandler(jobs, log),
		Conversation: handlers.NewConversationHandler(conversations, log),
		System:       handlers.NewSystemHandler(system, log),
		Alert:        handlers.NewAlertHandler(alerts, log, val),
		WebSocket:    handlers.NewWebSocketHandler(hub, authClient, nil, log),
	}

	srv := httptest.NewServer(router.New(cfg, log, authClient, h))
	t.Cleanup(srv.Close)

	return &stack{server: srv, fx: testutil.NewFixture(t, db), jobs: jobRepo, alerts: alerts, hub: hub}
}

func (s *stack) login(t *testing.T) *client.Client {
	t.Helper()
	c := client.NewClient(client.Config{BaseURL: s.server.URL})
	resp, err := c.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.Equal(t, adminToken, resp.Token)
	return c
}

func TestAdminFlow(t *testing.T) {
	for _, driver := range []string{"postgres", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			testAdminFlow(t, driver)
		})
	}
}

func testAdminFlow(t *testing.T, driver string) {
	s := newStack(t, driver)
	ctx := context.Background()

	schoolID := s.fx.School("North High", "Bandung", "West Java")
	alice := s.fx.User(testutil.UserRow{Email: "alice@school.example", Username: "alice", TokenBalance: 10})
	s.fx.Profile(alice, "Alice Example", &schoolID)
	bob := s.fx.User(testutil.UserRow{Email: "bob@school.example", Username: "bob"})

	started := time.Now().UTC().Add(-2 * time.Hour)
	s.fx.Job(testutil.JobRow{UserID: alice, Status: "completed", CompletedAt: testutil.Time(time.Now().UTC())})
	s.fx.Job(testutil.JobRow{UserID: alice, Status: "failed"})
	stuck := s.fx.Job(testutil.JobRow{UserID: bob, Status: "processing", StartedAt: &started})

	t.Run("unauthenticated", func(t *testing.T) {
		c := client.NewClient(client.Config{BaseURL: s.server.URL})
		_, err := c.Users().List(ctx, nil)
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsUnauthorized())

		_, err = c.Login(ctx, adminEmail, "wrong-password")
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsUnauthorized())
	})

	c := s.login(t)

	t.Run("verify", func(t *testing.T) {
		admin, err := c.Verify(ctx)
		require.NoError(t, err)
		assert.Equal(t, adminEmail, admin.Email)
	})

	t.Run("job filters resolve users", func(t *testing.T) {
		list, err := c.Jobs().List(ctx, &client.JobListOptions{UserEmail: "alice@"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, list.Pagination.Total)
		for _, j := range list.Jobs {
			require.NotNil(t, j.User)
			assert.Equal(t, "alice@school.example", j.User.Email)
		}

		list, err = c.Jobs().List(ctx, &client.JobListOptions{UserEmail: "nobody@"})
		require.NoError(t, err)
		assert.Empty(t, list.Jobs)
		assert.EqualValues(t, 0, list.Pagination.Total)

		list, err = c.Jobs().List(ctx, &client.JobListOptions{Status: "failed", ListOptions: client.ListOptions{Limit: 1}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, list.Pagination.Total)
		assert.Equal(t, 1, list.Pagination.TotalPages)
	})

	t.Run("user detail and tokens", func(t *testing.T) {
		detail, err := c.Users().Get(ctx, alice)
		require.NoError(t, err)
		assert.EqualValues(t, 1, detail.Statistics.Jobs["completed"])
		require.NotNil(t, detail.User.Profile)

		adj, err := c.Users().AdjustTokens(ctx, alice, -4, "Correction")
		require.NoError(t, err)
		assert.EqualValues(t, 10, adj.OldBalance)
		assert.EqualValues(t, 6, adj.NewBalance)

		_, err = c.Users().AdjustTokens(ctx, alice, -100, "")
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsValidationError())
	})

	t.Run("school in use cannot be deleted", func(t *testing.T) {
		err := c.Schools().Delete(ctx, schoolID)
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsConflict())

		name := "Empty School"
		created, err := c.Schools().Create(ctx, client.SchoolInput{Name: &name})
		require.NoError(t, err)
		require.NoError(t, c.Schools().Delete(ctx, created.ID))

		_, err = c.Schools().Get(ctx, created.ID)
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
	})

	t.Run("stuck job raises alert", func(t *testing.T) {
		monitor := worker.NewStuckJobMonitor(s.jobs, s.alerts, s.hub, time.Hour, logger.Nop())
		require.NoError(t, monitor.Run(ctx))

		list, err := c.Alerts().List(ctx, &client.AlertListOptions{Type: "job", Status: "active"})
		require.NoError(t, err)
		require.Len(t, list.Alerts, 1)
		assert.Equal(t, "Job stuck in processing", list.Alerts[0].Title)
		assert.Equal(t, stuck, list.Alerts[0].Data["id"])

		id := list.Alerts[0].ID
		acked, err := c.Alerts().Acknowledge(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "acknowledged", acked.Status)

		_, err = c.Alerts().Acknowledge(ctx, id)
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsConflict())

		resolved, err := c.Alerts().Resolve(ctx, id, "Worker restarted")
		require.NoError(t, err)
		assert.Equal(t, "Worker restarted", resolved.Resolution)
	})

	t.Run("system health", func(t *testing.T) {
		schemas, err := c.System().Database(ctx)
		require.NoError(t, err)
		for _, name := range []string{"auth", "archive", "chat"} {
			require.Contains(t, schemas, name)
			assert.Equal(t, "healthy", schemas[name].Status, fmt.Sprintf("schema %s", name))
		}
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, c.Logout(ctx))
		assert.Empty(t, c.GetToken())
	})

	t.Run("raw results route", func(t *testing.T) {
		c := s.login(t)
		var out interface{}
		err := c.DoRaw(ctx, http.MethodGet, "/admin/jobs/job_missing_"+strconv.Itoa(int(time.Now().Unix()))+"/results", nil, &out)
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
	})
}
