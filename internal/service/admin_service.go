package service

import (
	"context"
	"fmt"

	"idol-platform/internal/auth"
	"idol-platform/internal/model"
	"idol-platform/internal/repository/scylla"
	"idol-platform/internal/util"

	"go.uber.org/zap"
)

// AdminCreateRequest creates an administrative account.
type AdminCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin superadmin"`
}

// AdminService handles the admin CRUD surface.
type AdminService struct {
	admins scylla.AdminRepository
	hasher *auth.Hasher
	logger *zap.Logger
}

func NewAdminService(admins scylla.AdminRepository, hasher *auth.Hasher, logger *zap.Logger) *AdminService {
	return &AdminService{
		admins: admins,
		hasher: hasher,
		logger: logger,
	}
}

// ListAdmins returns all admins; password hashes never serialize.
func (s *AdminService) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	return s.admins.ListAdmins(ctx)
}

// CreateAdmin creates an admin with a hashed password and a default role.
func (s *AdminService) CreateAdmin(ctx context.Context, req *AdminCreateRequest) (*model.Admin, error) {
	req.Email = util.SanitizeInput(req.Email)
	req.Name = util.SanitizeInput(req.Name)

	if req.Email == "" || req.Name == "" || req.Password == "" {
		return nil, ErrValidation
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = "admin"
	}

	admin := &model.Admin{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin created",
		zap.String("admin_id", admin.AdminID.String()),
		zap.String("role", admin.Role))

	return admin, nil
}
