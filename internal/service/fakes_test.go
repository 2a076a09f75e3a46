package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"idol-platform/internal/model"

	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory stand-in for the Scylla user repository. It
// mirrors the store contract: lookups return (nil, nil) when nothing exists.
type fakeUserRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.User
	err  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	now := time.Now().UTC()
	user.JoinedAt = now
	user.UpdatedAt = now
	copied := *user
	f.byID[user.UserID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.byID[userID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.byID {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	user, err := f.GetUserByUsername(ctx, username)
	return user != nil, err
}

func (f *fakeUserRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, user := range f.byID {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) WalletTaken(_ context.Context, walletAddress string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if walletAddress == "" {
		return false, nil
	}
	for _, user := range f.byID {
		if user.WalletAddress == walletAddress {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	users := make([]*model.User, 0, len(f.byID))
	for _, user := range f.byID {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	user.UpdatedAt = time.Now().UTC()
	copied := *user
	f.byID[user.UserID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateUserStatus(_ context.Context, userID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if user, ok := f.byID[userID]; ok {
		user.Status = status
	}
	return nil
}

func (f *fakeUserRepo) HealthCheck(_ context.Context) error {
	return f.err
}

// fakeAdminRepo is an in-memory admin store.
type fakeAdminRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byID: make(map[uuid.UUID]*model.Admin)}
}

func (f *fakeAdminRepo) CreateAdmin(_ context.Context, admin *model.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if admin.AdminID == uuid.Nil {
		admin.AdminID = uuid.New()
	}
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	copied := *admin
	f.byID[admin.AdminID] = &copied
	return nil
}

func (f *fakeAdminRepo) GetAdminByID(_ context.Context, adminID uuid.UUID) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	admin, ok := f.byID[adminID]
	if !ok {
		return nil, nil
	}
	copied := *admin
	return &copied, nil
}

func (f *fakeAdminRepo) ListAdmins(_ context.Context) ([]*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	admins := make([]*model.Admin, 0, len(f.byID))
	for _, admin := range f.byID {
		copied := *admin
		admins = append(admins, &copied)
	}
	return admins, nil
}

// fakeIdolRepo is an in-memory idol store.
type fakeIdolRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Idol
}

func newFakeIdolRepo() *fakeIdolRepo {
	return &fakeIdolRepo{byID: make(map[uuid.UUID]*model.Idol)}
}

func (f *fakeIdolRepo) CreateIdol(_ context.Context, idol *model.Idol) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idol.IdolID == uuid.Nil {
		idol.IdolID = uuid.New()
	}
	now := time.Now().UTC()
	idol.CreatedAt = now
	idol.UpdatedAt = now
	copied := *idol
	f.byID[idol.IdolID] = &copied
	return nil
}

func (f *fakeIdolRepo) GetIdolByID(_ context.Context, idolID uuid.UUID) (*model.Idol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idol, ok := f.byID[idolID]
	if !ok {
		return nil, nil
	}
	copied := *idol
	return &copied, nil
}

func (f *fakeIdolRepo) XHandleTaken(_ context.Context, xHandle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, idol := range f.byID {
		if idol.XHandle == xHandle {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdolRepo) ListIdols(_ context.Context) ([]*model.Idol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idols := make([]*model.Idol, 0, len(f.byID))
	for _, idol := range f.byID {
		copied := *idol
		idols = append(idols, &copied)
	}
	return idols, nil
}

func (f *fakeIdolRepo) DeleteIdol(_ context.Context, idolID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, idolID)
	return nil
}

// fakeReplayCache marks (user, step) pairs in memory.
type fakeReplayCache struct {
	mu   sync.Mutex
	used map[string]bool
}

func newFakeReplayCache() *fakeReplayCache {
	return &fakeReplayCache{used: make(map[string]bool)}
}

func (f *fakeReplayCache) MarkUsed(_ context.Context, userID string, step int64, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s:%d", userID, step)
	if f.used[key] {
		return false, nil
	}
	f.used[key] = true
	return true, nil
}

// fakeLimiter counts failures and locks at the threshold.
type fakeLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	locked   map[string]bool
	max      int
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{
		failures: make(map[string]int),
		locked:   make(map[string]bool),
		max:      max,
	}
}

func (f *fakeLimiter) RecordFailure(_ context.Context, key string, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key]++
	if f.failures[key] >= f.max {
		f.locked[key] = true
	}
	return f.failures[key], nil
}

func (f *fakeLimiter) Locked(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked[key], nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, key)
	delete(f.locked, key)
	return nil
}
