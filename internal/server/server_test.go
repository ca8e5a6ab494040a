package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"github.com/smallbiznis/cotiza/internal/auth/session"
	"github.com/smallbiznis/cotiza/internal/authorization"
	"github.com/smallbiznis/cotiza/internal/clock"
	"github.com/smallbiznis/cotiza/internal/config"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "session-token"

type fakeAuthService struct {
	loginCalls  int
	logoutCalls int
	user        authdomain.User
	loginErr    error
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	return &authdomain.User{ID: snowflake.ID(200), Email: req.Email, Role: req.Role}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authdomain.LoginResult{
		User:      &f.user,
		RawToken:  testToken,
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, *authdomain.Session, error) {
	if rawToken != testToken {
		return nil, nil, authdomain.ErrInvalidSession
	}
	return &f.user, &authdomain.Session{ID: snowflake.ID(300), UserID: f.user.ID}, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	return nil
}

func (f *fakeAuthService) UpdateRole(ctx context.Context, userID snowflake.ID, role authdomain.Role) (*authdomain.User, error) {
	return &f.user, nil
}

func (f *fakeAuthService) SetDisabled(ctx context.Context, userID snowflake.ID, disabled bool) error {
	return nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	return &f.user, nil
}

func (f *fakeAuthService) ListUsers(ctx context.Context) ([]authdomain.User, error) {
	return []authdomain.User{f.user}, nil
}

type fakeAuthzService struct {
	err   error
	calls int
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, object, action string) error {
	f.calls++
	return f.err
}

type fakeQuoteService struct {
	quotedomain.Service

	drafts  []quotedomain.Quote
	getErr  error
	sendErr error
}

func (f *fakeQuoteService) ListDrafts(ctx context.Context, actor quotedomain.Actor, page pagination.Pagination) ([]quotedomain.Quote, *pagination.PageInfo, error) {
	return f.drafts, &pagination.PageInfo{}, nil
}

func (f *fakeQuoteService) Get(ctx context.Context, actor quotedomain.Actor, id snowflake.ID) (*quotedomain.QuoteDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &quotedomain.QuoteDetail{Quote: quotedomain.Quote{ID: id}}, nil
}

func (f *fakeQuoteService) Send(ctx context.Context, actor quotedomain.Actor, id snowflake.ID) (*quotedomain.QuoteDetail, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &quotedomain.QuoteDetail{Quote: quotedomain.Quote{ID: id, Status: quotedomain.StatusSent}}, nil
}

type testEnv struct {
	server *Server
	auth   *fakeAuthService
	authz  *fakeAuthzService
	quotes *fakeQuoteService
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	auth := &fakeAuthService{
		user: authdomain.User{ID: snowflake.ID(100), Email: "ventas@cotiza.local", Role: authdomain.RoleVentas},
	}
	authz := &fakeAuthzService{}
	quotes := &fakeQuoteService{}

	srv := NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{},
		Log:      zap.NewNop(),
		AuthSvc:  auth,
		Sessions: session.NewManager(config.Config{}),
		AuthzSvc: authz,
		QuoteSvc: quotes,
		Clock:    clock.NewRealClock(),
	})

	return &testEnv{server: srv, auth: auth, authz: authz, quotes: quotes}
}

func doRequest(env *testEnv, method, path string, body []byte, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	}
	w := httptest.NewRecorder()
	env.server.Engine().ServeHTTP(w, req)
	return w
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "ventas@cotiza.local", "password": "secreto1"})
	w := doRequest(env, http.MethodPost, "/auth/login", body, false)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, env.auth.loginCalls)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, session.DefaultCookieName, cookies[0].Name)
	require.Equal(t, testToken, cookies[0].Value)

	var resp struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ventas@cotiza.local", resp.Data.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestServer(t)
	env.auth.loginErr = authdomain.ErrInvalidCredentials

	body, _ := json.Marshal(map[string]string{"email": "x@y.z", "password": "wrong"})
	w := doRequest(env, http.MethodPost, "/auth/login", body, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestServer(t)

	w := doRequest(env, http.MethodGet, "/api/quotes", nil, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(env, http.MethodGet, "/api/quotes", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, env.authz.calls)
}

func TestAuthorizeDenied(t *testing.T) {
	env := newTestServer(t)
	env.authz.err = authorization.ErrForbidden

	w := doRequest(env, http.MethodGet, "/api/quotes", nil, true)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newTestServer(t)

	env.quotes.getErr = quotedomain.ErrNotFound
	w := doRequest(env, http.MethodGet, "/api/quotes/123", nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)

	env.quotes.sendErr = quotedomain.ErrSendInProgress
	w = doRequest(env, http.MethodPost, "/api/quotes/123/send", nil, true)
	require.Equal(t, http.StatusConflict, w.Code)

	env.quotes.sendErr = quotedomain.ErrRateLimited
	w = doRequest(env, http.MethodPost, "/api/quotes/123/send", nil, true)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	env.quotes.sendErr = quotedomain.ErrInvalidState
	w = doRequest(env, http.MethodPost, "/api/quotes/123/send", nil, true)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveQuoteValidatesStatus(t *testing.T) {
	env := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"status": "draft"})
	w := doRequest(env, http.MethodPost, "/api/quotes/123/resolve", body, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestServer(t)

	w := doRequest(env, http.MethodPost, "/auth/logout", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, env.auth.logoutCalls)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, session.DefaultCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
}
