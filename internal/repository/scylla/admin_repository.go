package scylla

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/model"
	"idol-platform/internal/util"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminRepository stores administrative accounts.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByID(ctx context.Context, adminID uuid.UUID) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]*model.Admin, error)
}

type adminRepository struct {
	client *Client
}

func NewAdminRepository(client *Client) AdminRepository {
	return &adminRepository{client: client}
}

func (r *adminRepository) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	if admin.AdminID == uuid.Nil {
		admin.AdminID = uuid.New()
	}

	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	err := r.client.Prepared.CreateAdmin.WithContext(ctx).Bind(
		admin.AdminID, admin.Email, admin.Name, admin.PasswordHash,
		admin.Role, admin.CreatedAt, admin.UpdatedAt).Exec()
	if err != nil {
		util.Error("Failed to create admin",
			zap.String("email", admin.Email),
			zap.Error(err))
		return fmt.Errorf("failed to create admin: %w", err)
	}

	util.Info("Admin created",
		zap.String("admin_id", admin.AdminID.String()),
		zap.String("role", admin.Role))

	return nil
}

func (r *adminRepository) GetAdminByID(ctx context.Context, adminID uuid.UUID) (*model.Admin, error) {
	admin := &model.Admin{}

	err := r.client.Prepared.GetAdmin.WithContext(ctx).Bind(adminID).Scan(
		&admin.AdminID, &admin.Email, &admin.Name, &admin.PasswordHash,
		&admin.Role, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

func (r *adminRepository) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	iter := r.client.Session.Query(`
        SELECT admin_id, email, name, password_hash, role, created_at, updated_at
        FROM admins`).WithContext(ctx).Iter()

	var admins []*model.Admin
	for {
		admin := &model.Admin{}
		if !iter.Scan(
			&admin.AdminID, &admin.Email, &admin.Name, &admin.PasswordHash,
			&admin.Role, &admin.CreatedAt, &admin.UpdatedAt) {
			break
		}
		admins = append(admins, admin)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}
