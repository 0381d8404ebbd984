package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func registerInput(username string) service.RegisterInput {
	return service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  "s3cret-pass",
	}
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("vasya"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, err := svc.Login(ctx, "VASYA@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "vasya", authed.Username)

	_, err = svc.Login(ctx, "vasya@example.com", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthServiceRegisterRejects(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("vasya"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    service.RegisterInput
		field string
	}{
		{"duplicate email", func() service.RegisterInput {
			in := registerInput("petya")
			in.Email = "vasya@example.com"
			return in
		}(), "email"},
		{"duplicate username", func() service.RegisterInput {
			in := registerInput("vasya")
			in.Email = "other@example.com"
			return in
		}(), "username"},
		{"reserved username", registerInput("me"), "username"},
		{"reserved username any case", registerInput("Set_Password"), "username"},
		{"invalid username", registerInput("bad name!"), "username"},
		{"short password", func() service.RegisterInput {
			in := registerInput("petya")
			in.Password = "short"
			return in
		}(), "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := service.NewAuthService(nil, "test-secret", time.Hour)

	token, err := svc.GenerateToken(42)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)

	_, err = svc.ValidateToken("invalid.token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	other := service.NewAuthService(nil, "other-secret", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	expired := service.NewAuthService(nil, "test-secret", time.Nanosecond)
	token, err = expired.GenerateToken(42)
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = expired.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestAuthServiceSetPassword(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("vasya"))
	require.NoError(t, err)

	err = svc.SetPassword(ctx, user.ID, "wrong-pass", "new-s3cret-pass")
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "current_password", ve.Field)

	require.NoError(t, svc.SetPassword(ctx, user.ID, "s3cret-pass", "new-s3cret-pass"))

	_, err = svc.Login(ctx, user.Email, "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, user.Email, "new-s3cret-pass")
	assert.NoError(t, err)
}
