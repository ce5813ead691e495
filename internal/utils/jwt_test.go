package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-pass-booking/internal/model"
)

func parseClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	return tok.Claims.(jwt.MapClaims)
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", "u1", model.RoleUser, "", 15)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, 5*time.Second)

	claims := parseClaims(t, at.Token, "secret")
	require.Equal(t, "u1", claims["sub"])
	require.Equal(t, "user", claims["role"])
	_, hasZone := claims["zone_id"]
	require.False(t, hasZone)
}

func TestNewAccessTokenStaffCarriesZone(t *testing.T) {
	at, err := NewAccessToken("secret", "s1", model.RoleStaff, "zone-1", 15)
	require.NoError(t, err)

	claims := parseClaims(t, at.Token, "secret")
	require.Equal(t, "staff", claims["role"])
	require.Equal(t, "zone-1", claims["zone_id"])
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)

	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	require.Equal(t, h1, h2)
	require.NotEqual(t, rt.Raw, h1)

	other, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.NotEqual(t, HashRefreshRaw(other.Raw), h1)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
}
