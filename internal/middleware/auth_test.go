package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func doRequest(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func protectedEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
			"zone_id": c.Get("zone_id"),
		})
	}, mw...)
	return e
}

func TestJWTAuthMissingToken(t *testing.T) {
	e := protectedEcho(JWTAuth(testSecret))
	rec := doRequest(e, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	e := protectedEcho(JWTAuth(testSecret))
	tok := signToken(t, "other-secret", jwt.MapClaims{"sub": "u1", "role": "user"})
	rec := doRequest(e, "Bearer "+tok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e := protectedEcho(JWTAuth(testSecret))
	tok := signToken(t, testSecret, jwt.MapClaims{
		"sub": "u1", "role": "user", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	rec := doRequest(e, "Bearer "+tok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	e := protectedEcho(JWTAuth(testSecret))
	tok := signToken(t, testSecret, jwt.MapClaims{
		"sub": "staff-1", "role": "staff", "zone_id": "zone-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := doRequest(e, "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":"staff-1"`)
	require.Contains(t, rec.Body.String(), `"role":"staff"`)
	require.Contains(t, rec.Body.String(), `"zone_id":"zone-1"`)
}

func TestRequireRole(t *testing.T) {
	e := protectedEcho(JWTAuth(testSecret), RequireRole("admin"))

	staff := signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "role": "staff"})
	rec := doRequest(e, "Bearer "+staff)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "role": "admin"})
	rec = doRequest(e, "Bearer "+admin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleMissingClaim(t *testing.T) {
	e := protectedEcho(RequireRole("admin"))
	rec := doRequest(e, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}
