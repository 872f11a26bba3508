package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantcore/internal/auth"
	"tenantcore/internal/config"
	"tenantcore/internal/middleware"
	"tenantcore/internal/model"
)

// noopAuthService satisfies service.AuthService with fixed answers; the cookie
// tests only care about the response headers.
type noopAuthService struct{}

func (noopAuthService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	return &model.User{ID: 1, Username: username, Email: email}, "issued-token", nil
}

func (noopAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	return "issued-token", &model.User{ID: 1, Email: email}, nil
}

func (noopAuthService) Logout(ctx context.Context, token string) error { return nil }

func (noopAuthService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return &model.User{ID: id}, nil
}

func (noopAuthService) ResolveClaims(ctx context.Context, claims *auth.Claims) (auth.Identity, error) {
	return auth.Identity{UserID: claims.UserID}, nil
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := http.Response{Header: rec.Header()}
	for _, cookie := range res.Cookies() {
		if cookie.Name == middleware.TokenCookieName {
			return cookie
		}
	}
	t.Fatalf("no %q cookie in response", middleware.TokenCookieName)
	return nil
}

func TestAuthHandler_LogoutClearsCookieWithMatchingAttributes(t *testing.T) {
	cfg := &config.Config{Env: "production", TokenTTL: time.Hour}
	h := NewAuthHandler(noopAuthService{}, cfg)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: "issued-token"})
	rec := httptest.NewRecorder()

	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := tokenCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, "/", cleared.Path)
	assert.Negative(t, cleared.MaxAge)
	assert.True(t, cleared.HttpOnly)
	assert.True(t, cleared.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cleared.SameSite)
}

func TestAuthHandler_ClearMirrorsSetAttributes(t *testing.T) {
	cfg := &config.Config{Env: "production", TokenTTL: time.Hour}
	h := NewAuthHandler(noopAuthService{}, cfg)
	e := echo.New()

	setRec := httptest.NewRecorder()
	h.setTokenCookie(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), setRec), "issued-token")
	set := tokenCookie(t, setRec)

	clearRec := httptest.NewRecorder()
	h.clearTokenCookie(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), clearRec))
	cleared := tokenCookie(t, clearRec)

	assert.Equal(t, set.Path, cleared.Path)
	assert.Equal(t, set.HttpOnly, cleared.HttpOnly)
	assert.Equal(t, set.Secure, cleared.Secure)
	assert.Equal(t, set.SameSite, cleared.SameSite)
}
