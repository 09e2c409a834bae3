package auth

import (
	"testing"
	"time"

	"managemint/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	u := &models.User{Name: "Mara", Email: "mara@agency.test", Role: models.RoleMarketer}
	u.ID = uuid.New()
	return u
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("s3cr3t", time.Hour)
	u := testUser()

	tok, err := issuer.Issue(u)
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, models.RoleMarketer, claims.Role)
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("s3cr3t", time.Hour)
	u := testUser()

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour)
		tok, err := other.Issue(u)
		require.NoError(t, err)
		_, err = issuer.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenIssuer("s3cr3t", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := past.Issue(u)
		require.NoError(t, err)
		_, err = issuer.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Parse("bad.token.here")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": u.ID.String(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("SubjectNotUUID", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "42",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte("s3cr3t"))
		require.NoError(t, err)
		_, err = issuer.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
}

func TestTemporaryPassword(t *testing.T) {
	a, err := TemporaryPassword()
	require.NoError(t, err)
	b, err := TemporaryPassword()
	require.NoError(t, err)
	assert.Len(t, a, 14)
	assert.GreaterOrEqual(t, len(a), MinPasswordLength)
	assert.NotEqual(t, a, b)
}

func TestResetToken(t *testing.T) {
	tok, hash, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Equal(t, hash, HashToken(tok))
	assert.NotEqual(t, tok, hash)
}
