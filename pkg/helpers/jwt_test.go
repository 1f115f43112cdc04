package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestGenerateAndParse(t *testing.T) {
	m, err := NewJWTManager("super-secret")
	require.NoError(t, err)

	before := time.Now()
	tok, exp, err := m.Generate("acc-123")
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), exp, 2*time.Second)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", claims.AccountID)
}

func TestParseExpired(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }

	tok, _, err := m.Generate("u1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestParseWrongSecret(t *testing.T) {
	right, _ := NewJWTManager("right-secret")
	wrong, _ := NewJWTManager("wrong-secret")

	tok, _, err := right.Generate("u2")
	require.NoError(t, err)

	_, err = wrong.Parse(tok)
	assert.Error(t, err)
}

func TestParseMalformed(t *testing.T) {
	m, _ := NewJWTManager("k")
	_, err := m.Parse("not.a.jwt")
	assert.Error(t, err)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	m, _ := NewJWTManager("k")
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		AccountID:        "u3",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Parse(s)
	assert.Error(t, err)
}

func TestParseRequiresAccountID(t *testing.T) {
	m, _ := NewJWTManager("k")
	tok, _, err := m.Generate("")
	require.NoError(t, err)

	_, err = m.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
