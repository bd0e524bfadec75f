package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func newServer(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/"}), rec
}

func TestLoginStoresToken(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"success":true,"message":"Login successful","data":{"user":{"id":"a1","email":"ops@example.com","user_type":"admin"},"token":"tok-1"}}`)

	resp, err := c.Login(context.Background(), "ops@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/admin/auth/login", rec.path)
	assert.Equal(t, "ops@example.com", rec.body["email"])
	assert.Equal(t, "admin", resp.User.UserType)
	assert.Equal(t, "tok-1", c.GetToken())
}

func TestErrorEnvelope(t *testing.T) {
	c, _ := newServer(t, http.StatusConflict, `{"success":false,"error":{"code":"INVALID_STATE","message":"Alert is already resolved"}}`)
	c.SetToken("tok")

	_, err := c.Alerts().Acknowledge(context.Background(), "alert_1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "INVALID_STATE", apiErr.Code)
	assert.Equal(t, "Alert is already resolved", apiErr.Message)
}

func TestErrorWithoutEnvelope(t *testing.T) {
	c, _ := newServer(t, http.StatusBadGateway, `upstream down`)

	err := c.Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestAlertListQuery(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"success":true,"data":{"alerts":[{"id":"alert_1","type":"job","severity":"warning","title":"Job stuck","status":"active"}],"pagination":{"page":2,"limit":5,"total":6,"totalPages":2}}}`)
	c.SetToken("tok")

	list, err := c.Alerts().List(context.Background(), &AlertListOptions{Page: 2, Limit: 5, Severity: "warning", Status: "active"})
	require.NoError(t, err)

	assert.Equal(t, "/admin/system/alerts", rec.path)
	assert.Equal(t, "limit=5&page=2&severity=warning&status=active", rec.query)
	assert.Equal(t, "Bearer tok", rec.auth)
	require.Len(t, list.Alerts, 1)
	assert.Equal(t, "Job stuck", list.Alerts[0].Title)
	assert.Equal(t, 2, list.Pagination.TotalPages)
}

func TestJobListQuery(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"success":true,"data":{"jobs":[],"pagination":{"page":1,"limit":20,"total":0,"totalPages":0}}}`)

	list, err := c.Jobs().List(context.Background(), &JobListOptions{Status: "failed", UserEmail: "a@b.c", DateTo: "2025-03-01"})
	require.NoError(t, err)

	assert.Equal(t, "date_to=2025-03-01&status=failed&user_email=a%40b.c", rec.query)
	assert.Empty(t, list.Jobs)
}

func TestAdjustTokensBody(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"success":true,"data":{"userId":"u1","email":"s@example.com","oldBalance":10,"newBalance":5,"amount":-5}}`)

	adj, err := c.Users().AdjustTokens(context.Background(), "u1", -5, "")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/admin/users/u1/tokens", rec.path)
	assert.Equal(t, float64(-5), rec.body["amount"])
	assert.NotContains(t, rec.body, "reason")
	assert.Equal(t, int64(5), adj.NewBalance)
}

func TestSchoolDeleteIgnoresNullData(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"success":true,"message":"School deleted successfully"}`)

	require.NoError(t, c.Schools().Delete(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/admin/schools/42", rec.path)
}
