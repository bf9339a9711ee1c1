package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "guest-42", RoleShopper, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "guest-42", claims.Subject)
	assert.Equal(t, RoleShopper, claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", "a", RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", "a", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"wrong key": good.Token,
		"garbage":   "not.a.token",
		"alg none":  none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken("other", raw)
			assert.Error(t, err)
		})
	}
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.Error(t, err)

	_, err = NewAccessToken("s3cret", "", RoleShopper, time.Hour)
	assert.Error(t, err)
}
