package service

import (
	"context"
	"fmt"
	"time"

	"idol-platform/internal/audit"
	"idol-platform/internal/auth"
	"idol-platform/internal/config"
	"idol-platform/internal/encryption"
	"idol-platform/internal/model"
	"idol-platform/internal/repository/scylla"
	"idol-platform/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	WalletAddress   string `json:"walletAddress,omitempty"`
	EnableTwoFactor bool   `json:"enableTwoFactor,omitempty"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

// AuthResult carries a minted token and the public account view.
// TwoFactorSecret and ProvisioningURI are set exactly once, on registration
// with enrollment requested.
type AuthResult struct {
	Token           string
	User            *model.PublicUser
	TwoFactorSecret string
	ProvisioningURI string
}

// AuthService implements credential verification, session issuance and the
// two-factor challenge flow. It also serves as the request gate's account
// source for the fresh suspension lookup.
type AuthService struct {
	users   scylla.UserRepository
	hasher  *auth.Hasher
	totp    *auth.TOTPEngine
	codec   *auth.TokenCodec
	secrets *encryption.Manager
	replay  auth.ReplayCache
	limiter auth.AttemptLimiter
	auditor *audit.Recorder
	logger  *zap.Logger

	replayWindow  time.Duration
	failureWindow time.Duration
}

func NewAuthService(
	users scylla.UserRepository,
	hasher *auth.Hasher,
	totpEngine *auth.TOTPEngine,
	codec *auth.TokenCodec,
	secrets *encryption.Manager,
	replay auth.ReplayCache,
	limiter auth.AttemptLimiter,
	auditor *audit.Recorder,
	cfg *config.Config,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		hasher:        hasher,
		totp:          totpEngine,
		codec:         codec,
		secrets:       secrets,
		replay:        replay,
		limiter:       limiter,
		auditor:       auditor,
		logger:        logger,
		replayWindow:  cfg.TwoFactor.ReplayWindow,
		failureWindow: cfg.TwoFactor.LockoutDuration,
	}
}

// GetUserByID satisfies auth.AccountSource.
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Register creates the account, enrolls it in 2FA when requested, and mints
// the first session token. The token carries verified=false, so an enrolled
// account starts interim and can only reach the verify endpoint.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest, remoteAddr string) (*AuthResult, error) {
	req.Username = util.SanitizeInput(req.Username)
	req.Email = util.SanitizeInput(req.Email)
	req.WalletAddress = util.SanitizeInput(req.WalletAddress)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, ErrValidation
	}

	// Duplicate checks run in parallel; each lookup table is its own query.
	g, gctx := errgroup.WithContext(ctx)
	var usernameTaken, emailTaken, walletTaken bool

	g.Go(func() (err error) {
		usernameTaken, err = s.users.UsernameTaken(gctx, req.Username)
		return err
	})
	g.Go(func() (err error) {
		emailTaken, err = s.users.EmailTaken(gctx, req.Email)
		return err
	})
	g.Go(func() (err error) {
		walletTaken, err = s.users.WalletTaken(gctx, req.WalletAddress)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if usernameTaken || emailTaken || walletTaken {
		return nil, ErrDuplicateAccount
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     passwordHash,
		WalletAddress:    req.WalletAddress,
		Status:           model.StatusActive,
		Verified:         false,
		Credits:          0,
		TwoFactorEnabled: req.EnableTwoFactor,
	}

	var plainSecret, provisioningURI string
	if req.EnableTwoFactor {
		plainSecret, provisioningURI, err = s.totp.GenerateSecret(req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to generate two-factor secret: %w", err)
		}

		envelope, err := s.secrets.Encrypt(ctx, plainSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt two-factor secret: %w", err)
		}
		user.TwoFactorSecret, err = envelope.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode two-factor secret: %w", err)
		}
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(user.UserID, user.TwoFactorEnabled, false)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.auditor.Record(ctx, audit.Event{
		UserID:     user.UserID.String(),
		Username:   user.Username,
		Action:     audit.ActionRegister,
		RemoteAddr: remoteAddr,
	})

	return &AuthResult{
		Token:           token,
		User:            user.Public(false),
		TwoFactorSecret: plainSecret,
		ProvisioningURI: provisioningURI,
	}, nil
}

// Login verifies the password and applies the two-factor policy. With 2FA
// enabled and no code supplied it returns an interim token alongside
// ErrTwoFactorRequired, so the caller can reach the verify endpoint and
// nothing else.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, remoteAddr string) (*AuthResult, error) {
	req.Username = util.SanitizeInput(req.Username)

	if req.Username == "" || req.Password == "" {
		return nil, ErrValidation
	}

	locked, err := s.limiter.Locked(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("lockout check failed: %w", err)
	}
	if locked {
		s.auditor.Record(ctx, audit.Event{
			Username:   req.Username,
			Action:     audit.ActionLockout,
			RemoteAddr: remoteAddr,
		})
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same failure as a wrong password: no account enumeration.
		s.recordLoginFailure(ctx, "", req.Username, remoteAddr, "unknown user")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.recordLoginFailure(ctx, user.UserID.String(), user.Username, remoteAddr, "wrong password")
		return nil, ErrInvalidCredentials
	}

	if user.Suspended() {
		s.auditor.Record(ctx, audit.Event{
			UserID:     user.UserID.String(),
			Username:   user.Username,
			Action:     audit.ActionSuspendedReject,
			RemoteAddr: remoteAddr,
		})
		return nil, ErrAccountSuspended
	}

	if user.TwoFactorEnabled {
		if req.TwoFactorCode == "" {
			interim, err := s.codec.Issue(user.UserID, true, false)
			if err != nil {
				return nil, fmt.Errorf("failed to issue interim token: %w", err)
			}
			return &AuthResult{
				Token: interim,
				User:  user.Public(false),
			}, ErrTwoFactorRequired
		}

		if err := s.checkTwoFactorCode(ctx, user, req.TwoFactorCode, remoteAddr); err != nil {
			return nil, err
		}
	}

	token, err := s.codec.Issue(user.UserID, user.TwoFactorEnabled, user.TwoFactorEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.limiter.Reset(ctx, user.Username); err != nil {
		s.logger.Warn("failed to reset failure counter",
			zap.String("username", user.Username),
			zap.Error(err))
	}

	s.auditor.Record(ctx, audit.Event{
		UserID:     user.UserID.String(),
		Username:   user.Username,
		Action:     audit.ActionLoginSuccess,
		RemoteAddr: remoteAddr,
	})

	return &AuthResult{
		Token: token,
		User:  user.Public(user.TwoFactorEnabled),
	}, nil
}

// VerifyTwoFactor completes the challenge for an interim session and mints
// the replacement token with verified=true. The interim token is not
// revoked; it stays gated to this endpoint until its own expiry.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, userID uuid.UUID, code, remoteAddr string) (*AuthResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return nil, ErrTwoFactorNotEnabled
	}

	locked, err := s.limiter.Locked(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("lockout check failed: %w", err)
	}
	if locked {
		return nil, ErrTooManyAttempts
	}

	if err := s.checkTwoFactorCode(ctx, user, code, remoteAddr); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(user.UserID, true, true)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.limiter.Reset(ctx, user.Username); err != nil {
		s.logger.Warn("failed to reset failure counter",
			zap.String("username", user.Username),
			zap.Error(err))
	}

	s.auditor.Record(ctx, audit.Event{
		UserID:     user.UserID.String(),
		Username:   user.Username,
		Action:     audit.ActionTwoFactorSuccess,
		RemoteAddr: remoteAddr,
	})

	return &AuthResult{
		Token: token,
		User:  user.Public(true),
	}, nil
}

func (s *AuthService) checkTwoFactorCode(ctx context.Context, user *model.User, code, remoteAddr string) error {
	if code == "" {
		return ErrInvalidTwoFactorCode
	}

	secret, err := s.decryptSecret(ctx, user)
	if err != nil {
		return err
	}

	if !s.totp.VerifyCode(secret, code) {
		s.recordTwoFactorFailure(ctx, user, remoteAddr, "wrong code")
		return ErrInvalidTwoFactorCode
	}

	// A code is single-use: the accepted (user, step) pair is marked for
	// the replay window and a second submission fails.
	step := s.totp.TimeStep(time.Now())
	fresh, err := s.replay.MarkUsed(ctx, user.UserID.String(), step, s.replayWindow)
	if err != nil {
		return fmt.Errorf("replay check failed: %w", err)
	}
	if !fresh {
		s.recordTwoFactorFailure(ctx, user, remoteAddr, "replayed code")
		return ErrInvalidTwoFactorCode
	}

	return nil
}

func (s *AuthService) decryptSecret(ctx context.Context, user *model.User) (string, error) {
	envelope, err := encryption.DecodeEncryptedValue(user.TwoFactorSecret)
	if err != nil {
		return "", fmt.Errorf("stored two-factor secret unreadable: %w", err)
	}
	secret, err := s.secrets.Decrypt(ctx, envelope)
	if err != nil {
		return "", fmt.Errorf("stored two-factor secret unreadable: %w", err)
	}
	return secret, nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, userID, username, remoteAddr, reason string) {
	if _, err := s.limiter.RecordFailure(ctx, username, s.failureWindow); err != nil {
		s.logger.Warn("failed to record login failure",
			zap.String("username", username),
			zap.Error(err))
	}
	s.auditor.Record(ctx, audit.Event{
		UserID:     userID,
		Username:   username,
		Action:     audit.ActionLoginFailure,
		Reason:     reason,
		RemoteAddr: remoteAddr,
	})
}

func (s *AuthService) recordTwoFactorFailure(ctx context.Context, user *model.User, remoteAddr, reason string) {
	if _, err := s.limiter.RecordFailure(ctx, user.Username, s.failureWindow); err != nil {
		s.logger.Warn("failed to record two-factor failure",
			zap.String("username", user.Username),
			zap.Error(err))
	}
	s.auditor.Record(ctx, audit.Event{
		UserID:     user.UserID.String(),
		Username:   user.Username,
		Action:     audit.ActionTwoFactorFailure,
		Reason:     reason,
		RemoteAddr: remoteAddr,
	})
}
