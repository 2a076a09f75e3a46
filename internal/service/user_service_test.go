package service

import (
	"context"
	"testing"

	"idol-platform/internal/auth"
	"idol-platform/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture() (*UserService, *fakeUserRepo) {
	users := newFakeUserRepo()
	svc := NewUserService(users, auth.NewHasher(testConfig()), zap.NewNop())
	return svc, users
}

func TestCreateAndListUsers(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, &UserCreateRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "some-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.NotEqual(t, uuid.Nil, created.ID)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, &UserCreateRequest{
		Username: "alice", Email: "alice@example.com", Password: "some-password",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, &UserCreateRequest{
		Username: "alice", Email: "other@example.com", Password: "some-password",
	})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.CreateUser(context.Background(), &UserCreateRequest{Username: "alice"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, &UserCreateRequest{
		Username: "alice", Email: "alice@example.com", Password: "some-password",
	})
	require.NoError(t, err)

	status := model.StatusSuspended
	credits := int64(500)
	verified := true
	updated, err := svc.UpdateUser(ctx, &UserUpdateRequest{
		ID:       created.ID,
		Status:   &status,
		Credits:  &credits,
		Verified: &verified,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuspended, updated.Status)
	assert.Equal(t, int64(500), updated.Credits)
	assert.True(t, updated.Verified)

	// Untouched fields survive the partial update.
	assert.Equal(t, "alice@example.com", updated.Email)

	stored, err := users.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Suspended())
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _ := newUserFixture()

	email := "new@example.com"
	_, err := svc.UpdateUser(context.Background(), &UserUpdateRequest{
		ID:    uuid.New(),
		Email: &email,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserValidation(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.UpdateUser(context.Background(), &UserUpdateRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}
