package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-profile-auth/internal/config"
	"github.com/pribylovaa/go-profile-auth/internal/http/handlers"
	"github.com/pribylovaa/go-profile-auth/internal/http/middleware"
	"github.com/pribylovaa/go-profile-auth/internal/password"
	"github.com/pribylovaa/go-profile-auth/internal/service"
	"github.com/pribylovaa/go-profile-auth/internal/storage"
	"github.com/pribylovaa/go-profile-auth/internal/storage/memory"
	"github.com/pribylovaa/go-profile-auth/internal/tokens"
	"github.com/pribylovaa/go-profile-auth/mocks"
)

// Сквозные тесты: настоящие сервис, токены и in-memory хранилище за chi-роутером.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	handler http.Handler
	store   *memory.Storage
	svc     *service.Service
	tm      *tokens.Manager
	clock   *fakeClock
	reg     *prometheus.Registry
}

type envOption func(*testEnv, *Options)

func withSecureCookies() envOption {
	return func(_ *testEnv, o *Options) { o.Cookie.Secure = true }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	clk := &fakeClock{now: time.Now().UTC()}
	tm, err := tokens.New(config.AuthConfig{
		JWTSecret:       "e2e-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Leeway:          5 * time.Second,
		Issuer:          "profile-auth",
		Audience:        []string{"profile-api"},
	}, tokens.WithClock(clk.Now))
	require.NoError(t, err)

	st := memory.New()
	svc := service.New(st, password.New(4), tm)

	env := &testEnv{store: st, svc: svc, tm: tm, clock: clk, reg: prometheus.NewRegistry()}
	o := Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:  5 * time.Second,
		Verifier: tm,
		Metrics:  middleware.NewMetrics(env.reg),
		Cookie: handlers.CookieOptions{
			Name:   "refreshToken",
			Path:   "/auth",
			MaxAge: tm.RefreshTTL(),
		},
	}
	for _, opt := range opts {
		opt(env, &o)
	}

	env.handler = NewRouter(svc, o)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(req)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func refreshCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	t.Fatalf("refreshToken cookie not set")
	return nil
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	e, ok := decode(t, rr)["error"].(map[string]any)
	require.True(t, ok, rr.Body.String())
	code, _ := e["code"].(string)
	return code
}

func johnDoe() map[string]any {
	return map[string]any{
		"username":  "johnDoe",
		"email":     "john.doe@example.com",
		"password":  "password123",
		"firstName": "John",
		"lastName":  "Doe",
		"age":       25,
		"gender":    "male",
		"location":  "New York",
		"interests": []string{"music", "sports"},
		"bio":       "Hello, I'm John",
	}
}

// register регистрирует johnDoe и возвращает access-токен и refresh-cookie.
func (e *testEnv) register(t *testing.T, body map[string]any) (string, *http.Cookie) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	access, _ := decode(t, rr)["accessToken"].(string)
	require.NotEmpty(t, access)
	return access, refreshCookie(t, rr)
}

func TestRegister_Created_TokensPresent_PasswordAbsent(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/register", johnDoe())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	body := decode(t, rr)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["accessExpiresAt"])
	require.NotContains(t, body, "refreshToken")

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "johnDoe", user["username"])
	require.Equal(t, "john.doe@example.com", user["email"])
	require.NotContains(t, user, "password")
	require.NotContains(t, user, "passwordHash")
	require.NotContains(t, rr.Body.String(), "password123")

	c := refreshCookie(t, rr)
	require.NotEmpty(t, c.Value)
	_, err := env.tm.VerifyRefresh(c.Value)
	require.NoError(t, err)
}

func TestRegister_CookieAttributes(t *testing.T) {
	env := newEnv(t, withSecureCookies())

	rr := env.do(t, http.MethodPost, "/auth/register", johnDoe())
	require.Equal(t, http.StatusCreated, rr.Code)

	c := refreshCookie(t, rr)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	require.Equal(t, "/auth", c.Path)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), c.MaxAge)
}

func TestRegister_InsecureCookieOutsideProd(t *testing.T) {
	env := newEnv(t)
	_, c := env.register(t, johnDoe())
	require.False(t, c.Secure)
}

func TestRegister_DuplicateEmail_OneRecord(t *testing.T) {
	env := newEnv(t)
	env.register(t, johnDoe())

	second := johnDoe()
	second["username"] = "janeDoe"
	second["email"] = "John.Doe@Example.com"

	rr := env.do(t, http.MethodPost, "/auth/register", second)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "duplicate_identity", errCode(t, rr))

	_, err := env.store.UserByUsername(context.Background(), "janeDoe")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegister_ValidationAndBadJSON(t *testing.T) {
	env := newEnv(t)

	young := johnDoe()
	young["age"] = 16
	rr := env.do(t, http.MethodPost, "/auth/register", young)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_failed", errCode(t, rr))

	rr = env.do(t, http.MethodPost, "/auth/register", `{"username":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))

	unknown := johnDoe()
	unknown["isAdmin"] = true
	rr = env.do(t, http.MethodPost, "/auth/register", unknown)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))
}

func TestLogin(t *testing.T) {
	env := newEnv(t)
	env.register(t, johnDoe())

	rr := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "john.doe@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotEmpty(t, decode(t, rr)["accessToken"])
	require.NotContains(t, decode(t, rr), "refreshToken")
	require.NotEmpty(t, refreshCookie(t, rr).Value)

	rr = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "john.doe@example.com", "password": "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_credentials", errCode(t, rr))

	rr = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", errCode(t, rr))
}

func TestProtectedResource_Gate(t *testing.T) {
	env := newEnv(t)
	access, _ := env.register(t, johnDoe())

	rr := env.do(t, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "missing_token", errCode(t, rr))

	rr = env.do(t, http.MethodGet, "/profile", nil, bearer("invalidToken"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_token", errCode(t, rr))

	rr = env.do(t, http.MethodGet, "/profile", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "johnDoe", decode(t, rr)["username"])
}

func TestProtectedResource_RefreshTokenRejected(t *testing.T) {
	env := newEnv(t)
	_, c := env.register(t, johnDoe())

	rr := env.do(t, http.MethodGet, "/posts", nil, bearer(c.Value))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_token", errCode(t, rr))
}

func TestRefresh_AfterAccessExpiry(t *testing.T) {
	env := newEnv(t)
	access, c := env.register(t, johnDoe())

	env.clock.Advance(2 * time.Hour)

	rr := env.do(t, http.MethodGet, "/profile", nil, bearer(access))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(c))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	fresh, _ := decode(t, rr)["accessToken"].(string)
	require.NotEmpty(t, fresh)
	require.NotEqual(t, access, fresh)

	rr = env.do(t, http.MethodGet, "/profile", nil, bearer(fresh))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRefresh_Failures(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "no_refresh_token", errCode(t, rr))

	rr = env.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(&http.Cookie{Name: "refreshToken", Value: "garbage"}))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_refresh_token", errCode(t, rr))

	// Токен корректно подписан, но пользователя нет.
	orphan, _, err := env.tm.IssueRefresh(uuid.New())
	require.NoError(t, err)
	rr = env.do(t, http.MethodPost, "/auth/refresh", nil, withCookie(&http.Cookie{Name: "refreshToken", Value: orphan}))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_refresh_token", errCode(t, rr))
}

func TestLogout_IdempotentAndClearsCookie(t *testing.T) {
	env := newEnv(t)
	_, c := env.register(t, johnDoe())

	for _, mods := range [][]func(*http.Request){{withCookie(c)}, nil} {
		rr := env.do(t, http.MethodPost, "/auth/logout", nil, mods...)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "Logged out successfully", decode(t, rr)["message"])

		cleared := refreshCookie(t, rr)
		require.Empty(t, cleared.Value)
		require.Equal(t, -1, cleared.MaxAge)
		require.Equal(t, "/auth", cleared.Path)
		require.True(t, cleared.HttpOnly)
	}
}

func TestProfileUpdate(t *testing.T) {
	env := newEnv(t)
	access, _ := env.register(t, johnDoe())
	env.register(t, map[string]any{
		"username": "janeDoe", "email": "jane@example.com", "password": "password123",
		"age": 30, "gender": "female", "location": "Paris",
	})

	rr := env.do(t, http.MethodPut, "/profile", map[string]any{
		"bio":         "Updated bio",
		"preferences": map[string]any{"genders": []string{"female"}, "minAge": 20, "maxAge": 40},
	}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	require.Equal(t, "Updated bio", body["bio"])
	prefs := body["preferences"].(map[string]any)
	require.EqualValues(t, 20, prefs["minAge"])

	rr = env.do(t, http.MethodPut, "/profile", map[string]any{"username": "janeDoe"}, bearer(access))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPut, "/profile", map[string]any{"password": "newpassword1"}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "john.doe@example.com", "password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	u, err := env.store.UserByUsername(context.Background(), "johnDoe")
	require.NoError(t, err)
	require.NotEqual(t, "newpassword1", u.PasswordHash)
}

func TestPosts_CRUDAndOwnership(t *testing.T) {
	env := newEnv(t)
	john, _ := env.register(t, johnDoe())
	jane, _ := env.register(t, map[string]any{
		"username": "janeDoe", "email": "jane@example.com", "password": "password123",
		"age": 30, "gender": "female", "location": "Paris",
	})

	rr := env.do(t, http.MethodPost, "/posts", map[string]string{"title": "Hi", "content": "too short"}, bearer(john))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/posts", map[string]string{
		"title": "First post", "content": "Some meaningful content",
	}, bearer(john))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	postID, _ := decode(t, rr)["id"].(string)
	require.NotEmpty(t, postID)

	rr = env.do(t, http.MethodGet, "/posts?limit=10", nil, bearer(jane))
	require.Equal(t, http.StatusOK, rr.Code)
	posts, _ := decode(t, rr)["posts"].([]any)
	require.Len(t, posts, 1)

	rr = env.do(t, http.MethodPut, "/posts/"+postID, map[string]string{"title": "Hijacked"}, bearer(jane))
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "forbidden", errCode(t, rr))

	rr = env.do(t, http.MethodPut, "/posts/"+postID, map[string]string{"title": "Edited title"}, bearer(john))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Edited title", decode(t, rr)["title"])

	rr = env.do(t, http.MethodDelete, "/posts/"+postID, nil, bearer(jane))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodDelete, "/posts/"+postID, nil, bearer(john))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodDelete, "/posts/"+postID, nil, bearer(john))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/posts/not-a-uuid", nil, bearer(john))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/posts?limit=abc", nil, bearer(john))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAvatars_DisabledReturns501(t *testing.T) {
	env := newEnv(t)
	access, _ := env.register(t, johnDoe())

	rr := env.do(t, http.MethodPost, "/profile/avatar/presign", map[string]any{
		"contentType": "image/png", "contentLength": 1024,
	}, bearer(access))
	require.Equal(t, http.StatusNotImplemented, rr.Code)
	require.Equal(t, "not_implemented", errCode(t, rr))
}

func TestAvatars_PresignAndConfirm(t *testing.T) {
	env := newEnv(t)
	access, _ := env.register(t, johnDoe())
	u, err := env.store.UserByUsername(context.Background(), "johnDoe")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	av := mocks.NewMockAvatars(ctrl)
	env.svc.SetAvatars(av)

	key := "avatars/" + u.ID.String() + "/a.png"
	av.EXPECT().AvatarUploadURL(gomock.Any(), u.ID, "image/png", int64(1024)).Return(&storage.UploadInfo{
		UploadURL:       "http://minio:9000/avatars/" + key,
		AvatarKey:       key,
		Expires:         10 * time.Minute,
		RequiredHeaders: map[string]string{"Content-Type": "image/png"},
	}, nil)
	av.EXPECT().CheckAvatarUpload(gomock.Any(), u.ID, key).Return("http://cdn/"+key, nil)

	rr := env.do(t, http.MethodPost, "/profile/avatar/presign", map[string]any{
		"contentType": "image/png", "contentLength": 1024,
	}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	require.Equal(t, key, body["avatarKey"])
	require.EqualValues(t, 600, body["expiresSeconds"])

	rr = env.do(t, http.MethodPost, "/profile/avatar/confirm", map[string]any{"avatarKey": key}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "http://cdn/"+key, decode(t, rr)["profilePicture"])
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", errCode(t, rr))

	rr = env.do(t, http.MethodGet, "/auth/login", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, "method_not_allowed", errCode(t, rr))
}

func TestRouter_RequestIDAndMetrics(t *testing.T) {
	env := newEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/logout", nil, func(r *http.Request) {
		r.Header.Set("X-Request-Id", "rid-e2e")
	})
	require.Equal(t, "rid-e2e", rr.Header().Get("X-Request-Id"))

	rr = env.do(t, http.MethodGet, "/profile", nil, func(r *http.Request) {
		r.Header.Set("X-Request-Id", "rid-e2e-2")
	})
	e := decode(t, rr)["error"].(map[string]any)
	require.Equal(t, "rid-e2e-2", e["requestId"])

	// Две серии: разные маршруты и статусы.
	n, err := testutil.GatherAndCount(env.reg, "profile_auth_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
