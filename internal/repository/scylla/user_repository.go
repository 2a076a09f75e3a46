package scylla

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/bucketing"
	"idol-platform/internal/model"
	"idol-platform/internal/util"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository is the credential-store interface for user accounts.
// Lookups return (nil, nil) when no record exists; errors are reserved for
// store failures.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	WalletTaken(ctx context.Context, walletAddress string) (bool, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	UpdateUserStatus(ctx context.Context, userID uuid.UUID, status string) error
	HealthCheck(ctx context.Context) error
}

type userRepository struct {
	client  *Client
	buckets *bucketing.Manager
}

func NewUserRepository(client *Client, buckets *bucketing.Manager) UserRepository {
	return &userRepository{
		client:  client,
		buckets: buckets,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	user.UserBucket = r.buckets.UserBucket(user.UserID)

	now := time.Now().UTC()
	user.JoinedAt = now
	user.UpdatedAt = now

	// One logged batch keeps the record and its lookup rows consistent.
	batch := r.client.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(r.client.Prepared.CreateUser.Statement(),
		user.UserBucket, user.UserID, user.Username, user.Email, user.PasswordHash,
		user.WalletAddress, user.Status, user.Verified, user.Credits,
		user.TwoFactorEnabled, user.TwoFactorSecret, user.JoinedAt, user.UpdatedAt)

	batch.Query(r.client.Prepared.CreateUsernameLookup.Statement(),
		user.Username, user.UserBucket, user.UserID, now)

	batch.Query(r.client.Prepared.CreateEmailLookup.Statement(),
		user.Email, user.UserBucket, user.UserID, now)

	if user.WalletAddress != "" {
		batch.Query(r.client.Prepared.CreateWalletLookup.Statement(),
			user.WalletAddress, user.UserBucket, user.UserID, now)
	}

	if err := r.client.ExecuteBatch(batch); err != nil {
		util.Error("Failed to create user",
			zap.String("username", user.Username),
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Info("User created",
		zap.String("user_id", user.UserID.String()),
		zap.String("username", user.Username),
		zap.Int("user_bucket", user.UserBucket))

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	bucket := r.buckets.UserBucket(userID)
	user := &model.User{}

	err := r.client.Prepared.GetUserByID.WithContext(ctx).Bind(bucket, userID).Scan(
		&user.UserBucket, &user.UserID, &user.Username, &user.Email, &user.PasswordHash,
		&user.WalletAddress, &user.Status, &user.Verified, &user.Credits,
		&user.TwoFactorEnabled, &user.TwoFactorSecret, &user.JoinedAt, &user.UpdatedAt)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var bucket int
	var userID uuid.UUID

	err := r.client.Prepared.GetUserRefByUsername.WithContext(ctx).Bind(username).Scan(&bucket, &userID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve username: %w", err)
	}

	return r.GetUserByID(ctx, userID)
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.refExists(ctx, r.client.Prepared.GetUserRefByUsername, username)
}

func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.refExists(ctx, r.client.Prepared.GetUserRefByEmail, email)
}

func (r *userRepository) WalletTaken(ctx context.Context, walletAddress string) (bool, error) {
	if walletAddress == "" {
		return false, nil
	}
	return r.refExists(ctx, r.client.Prepared.GetUserRefByWallet, walletAddress)
}

func (r *userRepository) refExists(ctx context.Context, query *gocql.Query, key string) (bool, error) {
	var bucket int
	var userID uuid.UUID

	err := query.WithContext(ctx).Bind(key).Scan(&bucket, &userID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("lookup failed: %w", err)
	}
	return true, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	iter := r.client.Session.Query(`
        SELECT user_bucket, user_id, username, email, password_hash,
            wallet_address, status, verified, credits,
            two_factor_enabled, two_factor_secret, joined_at, updated_at
        FROM users`).WithContext(ctx).Iter()

	var users []*model.User
	for {
		user := &model.User{}
		if !iter.Scan(
			&user.UserBucket, &user.UserID, &user.Username, &user.Email, &user.PasswordHash,
			&user.WalletAddress, &user.Status, &user.Verified, &user.Credits,
			&user.TwoFactorEnabled, &user.TwoFactorSecret, &user.JoinedAt, &user.UpdatedAt) {
			break
		}
		users = append(users, user)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	bucket := r.buckets.UserBucket(user.UserID)

	err := r.client.Prepared.UpdateUser.WithContext(ctx).Bind(
		user.Email, user.WalletAddress, user.Status,
		user.Verified, user.Credits, user.UpdatedAt,
		bucket, user.UserID).Exec()
	if err != nil {
		util.Error("Failed to update user",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *userRepository) UpdateUserStatus(ctx context.Context, userID uuid.UUID, status string) error {
	bucket := r.buckets.UserBucket(userID)

	err := r.client.Prepared.UpdateUserStatus.WithContext(ctx).Bind(
		status, time.Now().UTC(), bucket, userID).Exec()
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

func (r *userRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}
