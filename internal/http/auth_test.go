package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	h := &Handler{jwtSecret: "secret", tokenTTL: time.Hour}
	user := &domain.User{ID: 42, Username: "leo"}

	token, err := h.issueToken(user, time.Now())
	require.NoError(t, err)

	id, err := h.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenRejectsExpiredAndForeign(t *testing.T) {
	h := &Handler{jwtSecret: "secret", tokenTTL: time.Hour}
	user := &domain.User{ID: 42, Username: "leo"}

	expired, err := h.issueToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = h.parseToken(expired)
	assert.Error(t, err)

	other := &Handler{jwtSecret: "another secret", tokenTTL: time.Hour}
	foreign, err := other.issueToken(user, time.Now())
	require.NoError(t, err)
	_, err = h.parseToken(foreign)
	assert.Error(t, err)

	_, err = h.parseToken("garbage")
	assert.Error(t, err)
}
