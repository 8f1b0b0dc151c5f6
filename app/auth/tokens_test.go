package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tks := NewTokens("secret", "hris", time.Minute, time.Hour)

	pair, err := tks.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := tks.Parse(pair.Access, AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "hris", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	refresh, err := tks.Parse(pair.Refresh, RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refresh.ID, "each token has own id")
	assert.WithinDuration(t, time.Now().Add(time.Hour), refresh.ExpiresAt.Time, 5*time.Second)
}

func TestTokens_ParseErrors(t *testing.T) {
	tks := NewTokens("secret", "hris", time.Minute, time.Hour)
	pair, err := tks.Issue(1)
	require.NoError(t, err)

	t.Run("wrong type", func(t *testing.T) {
		_, err := tks.Parse(pair.Refresh, AccessToken)
		require.ErrorIs(t, err, ErrWrongTokenType)
		_, err = tks.Parse(pair.Access, RefreshToken)
		require.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("bad signature", func(t *testing.T) {
		other := NewTokens("other-secret", "hris", time.Minute, time.Hour)
		_, err := other.Parse(pair.Access, AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tks.Parse("not-a-token", AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokens("secret", "hris", time.Minute, time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
		access, err := past.Access(1)
		require.NoError(t, err)
		_, err = tks.Parse(access, AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{TokenType: AccessToken,
			RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tks.Parse(signed, AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokens_Defaults(t *testing.T) {
	tks := NewTokens("secret", "", 0, 0)
	assert.Equal(t, time.Hour, tks.accessTTL)
	assert.Equal(t, 7*24*time.Hour, tks.refreshTTL)
}

func TestClaims_UserID(t *testing.T) {
	_, err := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}.UserID()
	require.ErrorIs(t, err, ErrInvalidToken)
}
