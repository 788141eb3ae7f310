package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Feedspeed/internal/repo"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnv(t *testing.T) *Authenv {
	t.Helper()
	r, err := repo.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return &Authenv{JWTkey: []byte("test-key"), Repo: r, Log: zap.NewNop()}
}

func call(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie", CookieName)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	env := newEnv(t)

	rec := call(env.RegisterHandler, `{"login":" shop ","email":"shop@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, sessionCookie(t, rec).HttpOnly)

	rec = call(env.RegisterHandler, `{"login":"shop","email":"x@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(env.AuthHandler, `{"login":"shop","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c, err := env.parse(sessionCookie(t, rec).Value)
	require.NoError(t, err)
	assert.Equal(t, "shop", c.Login)
	assert.Positive(t, c.UserID)

	rec = call(env.AuthHandler, `{"login":"shop","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(env.AuthHandler, `{"login":"ghost","password":"hunter22"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t)
	cases := []string{
		`{`,
		`{"login":"a","email":"","password":"hunter22"}`,
		`{"login":"a","email":"a@example.com","password":"123"}`,
	}
	for _, body := range cases {
		rec := call(env.RegisterHandler, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newEnv(t)
	var gotID int
	var gotLogin string
	h := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserID(r.Context())
		gotLogin = UserLogin(r.Context())
	}))

	serve := func(cookie string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/user/setups", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	token, err := env.Token(7, "lathe", time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(token))
	assert.Equal(t, 7, gotID)
	assert.Equal(t, "lathe", gotLogin)

	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("garbage"))

	expired, err := env.Token(7, "lathe", time.Now().Add(-2*sessionTTL))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(expired))

	other := &Authenv{JWTkey: []byte("other-key"), Log: zap.NewNop()}
	forged, err := other.Token(7, "lathe", time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(forged))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7, "login": "lathe"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(unsigned))
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	rec := httptest.NewRecorder()
	env.LogoutHandler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0.001, 2)
	h := l.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1000", ""))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1001", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1002", ""))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1000", ""))
	// forwarding headers from an untrusted peer are ignored
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1003", "192.168.1.5"))

	assert.Equal(t, 2, l.Cleanup(time.Now().Add(time.Minute)))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1004", ""))
}

func TestIPRateLimiter_RotatingForwardedForIsLimited(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	h := l.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	blocked := 0
	for n := 0; n < 50; n++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", n))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.101.%d", n))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.GreaterOrEqual(t, blocked, 48)
	assert.Equal(t, 1, l.Tracked())
}

func TestIPRateLimiter_TrustedProxy(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	require.NoError(t, l.TrustProxies([]string{"10.0.0.0/8", "192.0.2.1"}))
	h := l.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// the client is the nearest untrusted hop; a spoofed leftmost entry does not matter
	assert.Equal(t, http.StatusOK, hit("10.1.1.1:80", "1.1.1.1, 198.51.100.9, 10.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit("192.0.2.1:80", "2.2.2.2, 198.51.100.9"))
	assert.Equal(t, http.StatusOK, hit("10.1.1.1:80", "198.51.100.10"))
	assert.Equal(t, 2, l.Tracked())

	assert.Error(t, l.TrustProxies([]string{"not-an-ip"}))
	assert.Error(t, l.TrustProxies([]string{"10.0.0.0/99"}))
}
