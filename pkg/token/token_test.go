package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifier_GenerateVerify(t *testing.T) {
	v := NewVerifier("secret", "chat")

	tok, err := v.Generate("user-1", RoleUser)
	require.NoError(t, err)

	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, string(RoleUser), claims.Role)
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier("secret", "")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("legacy user_id claim", func(t *testing.T) {
		tok := sign(t, "secret", Claims{MemberID: "legacy", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
		claims, err := v.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "legacy", claims.UserID())
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := sign(t, "other", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}})
		_, err := v.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		past := jwt.NewNumericDate(time.Now().Add(-time.Minute))
		tok := sign(t, "secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: past}})
		_, err := v.Verify(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("no expiry", func(t *testing.T) {
		tok := sign(t, "secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
		_, err := v.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok := sign(t, "secret", Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
		_, err := v.Verify(tok)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestVerifier_Issuer(t *testing.T) {
	issuing := NewVerifier("secret", "someone-else")
	tok, err := issuing.Generate("u", RoleUser)
	require.NoError(t, err)

	_, err = NewVerifier("secret", "chat").Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
