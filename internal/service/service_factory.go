package service

import (
	"idol-platform/internal/audit"
	"idol-platform/internal/auth"
	"idol-platform/internal/config"
	"idol-platform/internal/encryption"
	"idol-platform/internal/repository/scylla"

	"go.uber.org/zap"
)

// ServiceFactory creates and caches service instances.
type ServiceFactory struct {
	cfg     *config.Config
	users   scylla.UserRepository
	admins  scylla.AdminRepository
	idols   scylla.IdolRepository
	hasher  *auth.Hasher
	totp    *auth.TOTPEngine
	codec   *auth.TokenCodec
	secrets *encryption.Manager
	replay  auth.ReplayCache
	limiter auth.AttemptLimiter
	auditor *audit.Recorder
	logger  *zap.Logger

	authService  *AuthService
	userService  *UserService
	adminService *AdminService
	idolService  *IdolService
}

func NewServiceFactory(
	cfg *config.Config,
	users scylla.UserRepository,
	admins scylla.AdminRepository,
	idols scylla.IdolRepository,
	hasher *auth.Hasher,
	totpEngine *auth.TOTPEngine,
	codec *auth.TokenCodec,
	secrets *encryption.Manager,
	replay auth.ReplayCache,
	limiter auth.AttemptLimiter,
	auditor *audit.Recorder,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		cfg:     cfg,
		users:   users,
		admins:  admins,
		idols:   idols,
		hasher:  hasher,
		totp:    totpEngine,
		codec:   codec,
		secrets: secrets,
		replay:  replay,
		limiter: limiter,
		auditor: auditor,
		logger:  logger,
	}
}

// AuthService returns the auth service singleton.
func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(
			f.users, f.hasher, f.totp, f.codec, f.secrets,
			f.replay, f.limiter, f.auditor, f.cfg, f.logger,
		)
	}
	return f.authService
}

// UserService returns the user service singleton.
func (f *ServiceFactory) UserService() *UserService {
	if f.userService == nil {
		f.userService = NewUserService(f.users, f.hasher, f.logger)
	}
	return f.userService
}

// AdminService returns the admin service singleton.
func (f *ServiceFactory) AdminService() *AdminService {
	if f.adminService == nil {
		f.adminService = NewAdminService(f.admins, f.hasher, f.logger)
	}
	return f.adminService
}

// IdolService returns the idol service singleton.
func (f *ServiceFactory) IdolService() *IdolService {
	if f.idolService == nil {
		f.idolService = NewIdolService(f.idols, f.logger)
	}
	return f.idolService
}
