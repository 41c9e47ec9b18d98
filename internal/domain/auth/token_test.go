package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/platform/errors"
)

func TestAuthToken_RoundTrip(t *testing.T) {
	at := NewAuthToken("secret").WithTTL(time.Hour)
	token, err := at.GenerateToken("front-desk-1")
	require.NoError(t, err)

	subject, err := at.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "front-desk-1", subject)
}

func TestAuthToken_Rejects(t *testing.T) {
	at := NewAuthToken("secret")
	token, err := at.GenerateToken("desk")
	require.NoError(t, err)

	_, err = NewAuthToken("other").VerifyToken(token)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = at.VerifyToken("not-a-jwt")
	assert.Error(t, err)

	// 过期
	at.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = at.VerifyToken(token)
	assert.Error(t, err)
}

func TestAuthToken_Disabled(t *testing.T) {
	at := NewAuthToken("")
	assert.False(t, at.Enabled())
	_, err := at.GenerateToken("x")
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}
