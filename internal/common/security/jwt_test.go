package security

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_api/internal/common"
)

var testSecret = []byte("test-secret")

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testSecret, time.Hour, nil)

	token, expiresAt, err := ts.Issue("user-123", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	ts := NewTokenService(testSecret, 10*time.Second, func() time.Time { return current })

	token, expiresAt, err := ts.Issue("u1", "user")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(10*time.Second), expiresAt)

	// One second before expiry the token verifies.
	current = issued.Add(9 * time.Second)
	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	// One second after expiry it does not.
	current = issued.Add(11 * time.Second)
	_, err = ts.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	assert.Equal(t, common.MsgTokenInvalid, err.Error())
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService([]byte("right-secret"), time.Hour, nil)
	verifier := NewTokenService([]byte("wrong-secret"), time.Hour, nil)

	token, _, err := issuer.Issue("u2", "user")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	// The error must not reveal why verification failed.
	assert.Equal(t, common.MsgTokenInvalid, err.Error())
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testSecret, time.Hour, nil)

	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		_, err := ts.Verify(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	t.Parallel()

	ts := NewTokenService(testSecret, 0, nil)
	_, expiresAt, err := ts.Issue("u3", "user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expiresAt, 5*time.Second)
}

func TestGetClaimsHelpers(t *testing.T) {
	t.Parallel()

	id, err := GetUserIDFromClaims(map[string]interface{}{"user_id": "u1", "role": "user"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	role, err := GetUserRoleFromClaims(map[string]interface{}{"user_id": "u1", "role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	_, err = GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)

	_, err = GetUserRoleFromClaims(map[string]interface{}{"role": 42})
	assert.Error(t, err)
}
