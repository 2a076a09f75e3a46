package service

import (
	"context"
	"testing"

	"idol-platform/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminFixture() *AdminService {
	return NewAdminService(newFakeAdminRepo(), auth.NewHasher(testConfig()), zap.NewNop())
}

func TestCreateAdminDefaultsRole(t *testing.T) {
	svc := newAdminFixture()

	admin, err := svc.CreateAdmin(context.Background(), &AdminCreateRequest{
		Email:    "ops@example.com",
		Name:     "Ops Admin",
		Password: "super-secure-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)
	assert.NotEqual(t, "super-secure-pass", admin.PasswordHash)
}

func TestCreateAdminKeepsExplicitRole(t *testing.T) {
	svc := newAdminFixture()

	admin, err := svc.CreateAdmin(context.Background(), &AdminCreateRequest{
		Email:    "root@example.com",
		Name:     "Root",
		Password: "super-secure-pass",
		Role:     "superadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "superadmin", admin.Role)
}

func TestCreateAdminValidation(t *testing.T) {
	svc := newAdminFixture()

	_, err := svc.CreateAdmin(context.Background(), &AdminCreateRequest{Email: "ops@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListAdmins(t *testing.T) {
	svc := newAdminFixture()
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, &AdminCreateRequest{
		Email: "a@example.com", Name: "A", Password: "super-secure-pass",
	})
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, &AdminCreateRequest{
		Email: "b@example.com", Name: "B", Password: "super-secure-pass",
	})
	require.NoError(t, err)

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}
