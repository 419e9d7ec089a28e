package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/domain"
	"github.com/ignite/list-subscriptions/internal/identity"
	"github.com/ignite/list-subscriptions/internal/mailchimp"
	"github.com/ignite/list-subscriptions/internal/mailchimp/mailchimptest"
	"github.com/ignite/list-subscriptions/internal/pkg/httputil"
	"github.com/ignite/list-subscriptions/internal/service/subscription"
)

const emailHeader = "X-Auth-Request-Email"

var testServerConfig = config.ServerConfig{
	Port:           8080,
	Host:           "localhost",
	AllowedOrigins: []string{"https://app.example.com"},
}

func setupTestServer(t *testing.T) (*Server, *mailchimptest.Server) {
	t.Helper()
	fake := mailchimptest.NewServer("Newsletter", "Releases")
	t.Cleanup(fake.Close)

	client := fake.Client()
	srv := NewServer(testServerConfig,
		subscription.NewService(client),
		identity.HeaderProvider{Header: emailHeader},
		NewHealthChecker(client, nil))
	return srv, fake
}

func doRequest(t *testing.T, h http.Handler, method, path, email string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if email != "" {
		req.Header.Set(emailHeader, email)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListSubscriptions_RequiresIdentity(t *testing.T) {
	srv, fake := setupTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/mail-subscriptions", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, fake.Calls(mailchimptest.CallGetLists))
}

func TestListSubscriptions(t *testing.T) {
	srv, fake := setupTestServer(t)
	lists := fake.Lists()
	fake.SetMember(lists[1].ID, "user@example.com", domain.MemberSubscribed)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/mail-subscriptions", "user@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[SubscriptionsResponse](t, rec)
	require.Len(t, body.Lists, 2)
	assert.Equal(t, lists[0].ID, body.Lists[0].ID)
	assert.Equal(t, "Newsletter", body.Lists[0].Name)
	assert.Equal(t, domain.ActionSubscribe, body.Lists[0].Action)
	assert.Equal(t, domain.ActionUnsubscribe, body.Lists[1].Action)
}

func TestListSubscriptions_JSONShape(t *testing.T) {
	srv, fake := setupTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/mail-subscriptions", "user@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string][]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, map[string]string{
		"id":     fake.Lists()[0].ID,
		"name":   "Newsletter",
		"action": "subscribe",
	}, raw["lists"][0])
}

func TestSubscribeThenUnsubscribe(t *testing.T) {
	srv, fake := setupTestServer(t)
	listID := fake.Lists()[0].ID

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/mail-subscriptions/"+listID+"/subscribe", "user@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decodeBody[ToggleResponse](t, rec)
	assert.Equal(t, domain.ActionUnsubscribe, toggled.Action)
	assert.Equal(t, "Unsubscribe", toggled.ButtonText)
	assert.NotEmpty(t, toggled.AlertText)

	status, ok := fake.MemberStatus(listID, "user@example.com")
	require.True(t, ok)
	assert.Equal(t, domain.MemberSubscribed, status)

	rec = doRequest(t, srv.Handler(), http.MethodPost, "/api/mail-subscriptions/"+listID+"/unsubscribe", "user@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	toggled = decodeBody[ToggleResponse](t, rec)
	assert.Equal(t, domain.ActionSubscribe, toggled.Action)
	assert.Equal(t, "Subscribe", toggled.ButtonText)

	status, _ = fake.MemberStatus(listID, "user@example.com")
	assert.Equal(t, domain.MemberUnsubscribed, status)
}

func TestSubscribe_UpstreamFailureIs502(t *testing.T) {
	srv, fake := setupTestServer(t)
	fake.FailWith(mailchimptest.CallUpdateMember, http.StatusInternalServerError)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/mail-subscriptions/"+fake.Lists()[0].ID+"/subscribe", "user@example.com")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody[httputil.ErrorResponse](t, rec)
	assert.Equal(t, "upstream_error", body.Code)
	assert.NotContains(t, rec.Body.String(), "forced failure")
}

func TestSubscribe_GetNotAllowed(t *testing.T) {
	srv, fake := setupTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/mail-subscriptions/"+fake.Lists()[0].ID+"/subscribe", "user@example.com")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, fake.Calls(mailchimptest.CallUpdateMember))
}

// stubGateway returns fixed errors for status-mapping tests.
type stubGateway struct {
	err error
}

func (s stubGateway) ListStatuses(context.Context, string) ([]domain.SubscriptionView, error) {
	return nil, s.err
}
func (s stubGateway) Subscribe(context.Context, string, string) error   { return s.err }
func (s stubGateway) Unsubscribe(context.Context, string, string) error { return s.err }

func TestGatewayErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "missing list id", err: subscription.ErrListIDRequired, want: http.StatusBadRequest},
		{name: "missing email", err: subscription.ErrEmailRequired, want: http.StatusBadRequest},
		{name: "api error", err: &mailchimp.APIError{StatusCode: 401, Title: "API Key Invalid"}, want: http.StatusBadGateway},
		{name: "transport error", err: &mailchimp.TransportError{Method: "GET", URL: "http://x", Err: context.DeadlineExceeded}, want: http.StatusBadGateway},
		{name: "other error", err: errors.New("parsing lists response: boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(testServerConfig, stubGateway{err: tt.err}, identity.StaticProvider{Address: "dev@example.com"}, nil)

			for _, path := range []string{"/api/mail-subscriptions/L1/subscribe", "/api/mail-subscriptions/L1/unsubscribe"} {
				rec := doRequest(t, srv.Handler(), http.MethodPost, path, "")
				assert.Equal(t, tt.want, rec.Code, path)
			}
			rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/mail-subscriptions", "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/mail-subscriptions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[httputil.ErrorResponse](t, rec)
	assert.Equal(t, "not found", body.Error)
}

// recordingGateway captures the list ids handlers pass on.
type recordingGateway struct {
	stubGateway
	listIDs []string
}

func (g *recordingGateway) Subscribe(_ context.Context, _, listID string) error {
	g.listIDs = append(g.listIDs, listID)
	return nil
}

func (g *recordingGateway) Unsubscribe(_ context.Context, _, listID string) error {
	g.listIDs = append(g.listIDs, listID)
	return nil
}

func TestListIDIsUnescapedOnce(t *testing.T) {
	gateway := &recordingGateway{}
	srv := NewServer(testServerConfig, gateway, identity.StaticProvider{Address: "dev@example.com"}, nil)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/mail-subscriptions/a%2Fb/subscribe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, srv.Handler(), http.MethodPost, "/api/mail-subscriptions/a%20b/unsubscribe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"a/b", "a b"}, gateway.listIDs)
}

func TestToggleResponseOffersInverse(t *testing.T) {
	resp := toggleResponse(domain.ActionSubscribe, "done")
	assert.Equal(t, domain.ActionUnsubscribe, resp.Action)
	assert.Equal(t, "Unsubscribe", resp.ButtonText)

	resp = toggleResponse(domain.ActionUnsubscribe, "done")
	assert.Equal(t, domain.ActionSubscribe, resp.Action)
	assert.Equal(t, "Subscribe", resp.ButtonText)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Contains(t, response, "version")
	assert.Contains(t, response, "uptime")

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_RemoteDown(t *testing.T) {
	srv, fake := setupTestServer(t)
	fake.FailWith(mailchimptest.CallPing, http.StatusServiceUnavailable)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// /health still answers 200 and carries the status in the body
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[HealthStatus](t, rec)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "down", body.Checks["mailchimp"].Status)
}

func TestReadiness_WithRedis(t *testing.T) {
	fake := mailchimptest.NewServer("Newsletter")
	defer fake.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hc := NewHealthChecker(fake.Client(), client)
	checks := hc.runAllChecks(context.Background())
	assert.Equal(t, "up", checks["redis"].Status)
	assert.Equal(t, "healthy", determineOverallStatus(checks))

	mr.Close()
	checks = hc.runAllChecks(context.Background())
	assert.Equal(t, "down", checks["redis"].Status)
	assert.Equal(t, "unhealthy", determineOverallStatus(checks))
}

func TestDetermineOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]ComponentCheck
		want   string
	}{
		{
			name: "all up",
			checks: map[string]ComponentCheck{
				"mailchimp": {Status: "up"},
				"redis":     {Status: "up"},
			},
			want: "healthy",
		},
		{
			name: "redis not configured",
			checks: map[string]ComponentCheck{
				"mailchimp": {Status: "up"},
				"redis":     {Status: "down", Message: "not configured"},
			},
			want: "healthy",
		},
		{
			name: "slow remote",
			checks: map[string]ComponentCheck{
				"mailchimp": {Status: "degraded"},
				"redis":     {Status: "up"},
			},
			want: "degraded",
		},
		{
			name: "remote down",
			checks: map[string]ComponentCheck{
				"mailchimp": {Status: "down", Message: "ping failed"},
				"redis":     {Status: "degraded"},
			},
			want: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineOverallStatus(tt.checks))
		})
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5s", formatUptime(5e9))
	assert.Equal(t, "2m 5s", formatUptime(125e9))
	assert.Equal(t, "1h 0m 1s", formatUptime(3601e9))
	assert.Equal(t, "1d 1h 0m 0s", formatUptime(90000e9))
}
