package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"managemint/internal/auth"
	"managemint/internal/models"
	"managemint/internal/notify"
	"managemint/internal/server"
	"managemint/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const origin = "http://app.test"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (http.Handler, *models.User) {
	t.Helper()
	db := testutil.NewDB(t)
	n := notify.New(&testutil.Mailbox{}, zap.NewNop())
	t.Cleanup(n.Close)

	h := server.NewRouter(server.Options{
		DB:            db,
		Notifier:      n,
		Tokens:        auth.NewTokenIssuer("router-secret", time.Hour),
		SessionSecret: "router-session",
		FrontendURL:   origin,
	})
	return h, testutil.NewUser(t, db, models.RoleMarketer)
}

func TestHealth(t *testing.T) {
	h, _ := newRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProtectedRoutesNeedAuth(t *testing.T) {
	h, _ := newRouter(t)
	for _, path := range []string{"/consultants", "/offers", "/auth/me", "/audit-logs"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCORS(t *testing.T) {
	h, _ := newRouter(t)

	preflight := func(from string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/consultants", nil)
		req.Header.Set("Origin", from)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := preflight(origin)
	assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = preflight("http://evil.test")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionCookieLogin(t *testing.T) {
	h, u := newRouter(t)

	body, err := json.Marshal(map[string]string{"email": u.Email, "password": testutil.Password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, u.ID, me.ID)

	// logout clears the session
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "managemint_session" {
			assert.Negative(t, ck.MaxAge)
		}
	}
}
