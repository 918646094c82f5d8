package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/repository/mock"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	users := mock.NewUserRepository()
	svc := NewUserService(users)
	ctx := context.Background()

	user, err := svc.Register(ctx, "leo", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "leo", user.Username)
	assert.Empty(t, user.PasswordHash, "password hash must not leave the service")

	got, err := svc.Authenticate(ctx, "leo", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	users := mock.NewUserRepository()
	svc := NewUserService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, "leo", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "leo", "another password 123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.Register(ctx, "", "correct horse battery")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "short", "1234567")
	assert.Error(t, err)
}

func TestGetByUsername(t *testing.T) {
	users := mock.NewUserRepository()
	svc := NewUserService(users)
	ctx := context.Background()

	_, err := svc.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	created, err := svc.Register(ctx, "ghost", "a very long password")
	require.NoError(t, err)

	got, err := svc.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
