package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Signup(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db)).WithBcryptCost(bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Username: " leo ", Password: "long enough", FirstName: "Leo"})
	require.NoError(t, err)
	assert.Equal(t, "leo", user.Username)
	assert.NotEqual(t, "long enough", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("long enough")))

	tests := []struct {
		name      string
		in        SignupInput
		wantField string
	}{
		{"taken", SignupInput{Username: "leo", Password: "long enough"}, "username"},
		{"blank username", SignupInput{Password: "long enough"}, "username"},
		{"bad characters", SignupInput{Username: "leo tolstoy", Password: "long enough"}, "username"},
		{"short password", SignupInput{Username: "ann", Password: "short"}, "password"},
		{"bad email", SignupInput{Username: "ann", Password: "long enough", Email: "nope"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			assert.Contains(t, fieldsOf(t, err), tt.wantField)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")

	got, err := svc.Authenticate(ctx, "leo", "password123")
	require.NoError(t, err)
	assert.Equal(t, leo.ID, got.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	_, err = svc.Authenticate(ctx, "ghost", "password123")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}
