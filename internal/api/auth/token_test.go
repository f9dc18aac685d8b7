package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vineyard-api/internal/domain/users"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	email := "admin@example.com"
	raw, err := tokens.Issue(&users.User{ID: 7, Email: &email, Role: users.RoleAdministrator})
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, users.Identity{UserID: 7, Superuser: true}, claims.Identity())
}

func TestTokensRejectForeignAndExpired(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	raw, err := NewTokens("other", time.Hour).Issue(&users.User{ID: 1, Role: users.RoleUser})
	require.NoError(t, err)
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	raw, err = tokens.Issue(&users.User{ID: 1, Role: users.RoleUser})
	require.NoError(t, err)
	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
