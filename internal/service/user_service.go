package service

import (
	"context"
	"fmt"

	"idol-platform/internal/auth"
	"idol-platform/internal/model"
	"idol-platform/internal/repository/scylla"
	"idol-platform/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserCreateRequest creates a user record through the CRUD surface. The
// password is hashed here exactly like in registration; it is never stored
// or returned in the clear.
type UserCreateRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// UserUpdateRequest patches mutable fields. Password, two-factor state and
// join time are deliberately absent: those move only through auth flows.
type UserUpdateRequest struct {
	ID            uuid.UUID `json:"id" validate:"required"`
	Email         *string   `json:"email,omitempty" validate:"omitempty,email"`
	WalletAddress *string   `json:"walletAddress,omitempty"`
	Status        *string   `json:"status,omitempty" validate:"omitempty,oneof=active suspended"`
	Verified      *bool     `json:"verified,omitempty"`
	Credits       *int64    `json:"credits,omitempty"`
}

// UserService handles the user CRUD surface.
type UserService struct {
	users  scylla.UserRepository
	hasher *auth.Hasher
	logger *zap.Logger
}

func NewUserService(users scylla.UserRepository, hasher *auth.Hasher, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// ListUsers returns all users as public projections.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*model.PublicUser, 0, len(users))
	for _, user := range users {
		result = append(result, user.Public(false))
	}
	return result, nil
}

// CreateUser creates a plain account (no 2FA enrollment) via the CRUD API.
func (s *UserService) CreateUser(ctx context.Context, req *UserCreateRequest) (*model.PublicUser, error) {
	req.Username = util.SanitizeInput(req.Username)
	req.Email = util.SanitizeInput(req.Email)
	req.WalletAddress = util.SanitizeInput(req.WalletAddress)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, ErrValidation
	}

	usernameTaken, err := s.users.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	emailTaken, err := s.users.EmailTaken(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if usernameTaken || emailTaken {
		return nil, ErrDuplicateAccount
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		WalletAddress: req.WalletAddress,
		Status:        model.StatusActive,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user.Public(false), nil
}

// UpdateUser applies a partial update to the mutable, non-credential fields.
func (s *UserService) UpdateUser(ctx context.Context, req *UserUpdateRequest) (*model.PublicUser, error) {
	if req.ID == uuid.Nil {
		return nil, ErrValidation
	}

	user, err := s.users.GetUserByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.WalletAddress != nil {
		user.WalletAddress = *req.WalletAddress
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Verified != nil {
		user.Verified = *req.Verified
	}
	if req.Credits != nil {
		user.Credits = *req.Credits
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.String("user_id", user.UserID.String()))
	return user.Public(false), nil
}

// HealthCheck verifies the credential store is reachable.
func (s *UserService) HealthCheck(ctx context.Context) error {
	return s.users.HealthCheck(ctx)
}
