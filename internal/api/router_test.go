package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"auth_api/internal/app/service"
	"auth_api/internal/common"
	"auth_api/internal/common/security"
	"auth_api/internal/domain/repository"
	"auth_api/internal/platform/config"
	"auth_api/internal/platform/limiter"
)

type testServer struct {
	router http.Handler
	tokens *security.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		AppEnv:         "test",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := security.NewTokenService([]byte("test-secret"), time.Hour, nil)
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	users := repository.NewMemoryUserRepository()

	authService := service.NewAuthService(users, hasher, tokens, log)
	userService := service.NewUserService(users)

	return &testServer{
		router: NewRouter(cfg, log, tokens, authService, userService, limiter.NewMemoryStore(nil)),
		tokens: tokens,
	}
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) common.Envelope {
	t.Helper()
	var env common.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func dataMap(t *testing.T, env common.Envelope) map[string]any {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	require.True(t, ok, "data must be a JSON object, got %T", env.Data)
	return data
}

func registerAnn(t *testing.T, ts *testServer) (userID, token string) {
	t.Helper()
	rec := ts.do(http.MethodPost, "/auth/register", "",
		`{"name":"Ann Example","email":"ann@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := dataMap(t, envelope(t, rec))
	user := data["user"].(map[string]any)
	return user["id"].(string), data["token"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/auth/register", "",
		`{"name":"Ann Example","email":"ann@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := envelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, common.MsgRegisterSuccess, env.Message)

	data := dataMap(t, env)
	user := data["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, rec.Body.String(), "password", "credentials must never leave the service")

	claims, err := ts.tokens.Verify(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestRegisterEndpoint_ValidationEnvelope(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/auth/register", "",
		`{"name":"A","email":"nope","password":"123","role":"superuser"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := envelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, common.MsgValidationFailed, env.Message)
	assert.Len(t, env.Errors, 4, "every violated field is reported at once")
	assert.Equal(t, common.MsgNameTooShort, env.Errors["name"])
	assert.Equal(t, common.MsgInvalidEmail, env.Errors["email"])
	assert.Equal(t, common.MsgPasswordTooShort, env.Errors["password"])
	assert.Equal(t, common.MsgInvalidRole, env.Errors["role"])
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	registerAnn(t, ts)

	rec := ts.do(http.MethodPost, "/auth/register", "",
		`{"name":"Other","email":"ann@example.com","password":"secret2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, common.MsgEmailExists, envelope(t, rec).Message)
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	userID, _ := registerAnn(t, ts)

	rec := ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"ann@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	env := envelope(t, rec)
	assert.Equal(t, common.MsgLoginSuccess, env.Message)

	claims, err := ts.tokens.Verify(dataMap(t, env)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	registerAnn(t, ts)

	unknown := ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"nobody@example.com","password":"secret1"}`)
	wrong := ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"ann@example.com","password":"wrong-password"}`)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, envelope(t, unknown).Message, envelope(t, wrong).Message)
	assert.Equal(t, common.MsgInvalidCredentials, envelope(t, wrong).Message)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	userID, token := registerAnn(t, ts)

	rec := ts.do(http.MethodGet, "/auth/profile", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := dataMap(t, envelope(t, rec))
	assert.Equal(t, userID, profile["id"])
	assert.Equal(t, "ann@example.com", profile["email"])

	rec = ts.do(http.MethodGet, "/auth/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.MsgAuthRequired, envelope(t, rec).Message)

	rec = ts.do(http.MethodPut, "/auth/profile", token, `{"name":"Ann Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann Renamed", dataMap(t, envelope(t, rec))["name"])

	// Validation runs before authentication: a bad payload with no token
	// reports the payload problem.
	rec = ts.do(http.MethodPut, "/auth/profile", "", `{"name":"A"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, common.MsgValidationFailed, envelope(t, rec).Message)
}

func TestChangePasswordEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, token := registerAnn(t, ts)

	rec := ts.do(http.MethodPost, "/auth/change-password", token,
		`{"currentPassword":"secret1","newPassword":"newsecret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.MsgPasswordChanged, envelope(t, rec).Message)

	rec = ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"ann@example.com","password":"newsecret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/auth/change-password", token,
		`{"currentPassword":"secret1","newPassword":"another1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.MsgCurrentPasswordIncorrect, envelope(t, rec).Message)
}

func TestAdminListUsers(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, userToken := registerAnn(t, ts)

	rec := ts.do(http.MethodPost, "/auth/register", "",
		`{"name":"Root","email":"root@example.com","password":"secret1","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	adminToken := dataMap(t, envelope(t, rec))["token"].(string)

	rec = ts.do(http.MethodGet, "/users", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed, ok := envelope(t, rec).Data.([]any)
	require.True(t, ok)
	assert.Len(t, listed, 2)

	rec = ts.do(http.MethodGet, "/users", userToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, common.MsgForbidden, envelope(t, rec).Message)

	rec = ts.do(http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/nope", "", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := envelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, common.MsgRouteNotFound, env.Message)
}

func TestFailedLoginsHitAuthLimiter(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	registerAnn(t, ts)

	for i := 0; i < 5; i++ {
		rec := ts.do(http.MethodPost, "/auth/login", "",
			`{"email":"ann@example.com","password":"wrong-password"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"ann@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	env := envelope(t, rec)
	assert.Equal(t, common.MsgTooManyAuthAttempts, env.Message)
	assert.Greater(t, env.RetryAfter, 0)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// The governor talks before the credential check: even the right
	// password is turned away now.
	rec = ts.do(http.MethodPost, "/auth/login", "",
		`{"email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthIsNeverLimited(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	for i := 0; i < 30; i++ {
		rec := ts.do(http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	var body map[string]string
	rec := ts.do(http.MethodGet, "/health", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
