package service

import (
	"context"
	"testing"
	"time"

	"idol-platform/internal/audit"
	"idol-platform/internal/auth"
	"idol-platform/internal/config"
	"idol-platform/internal/encryption"
	"idol-platform/internal/model"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMaxAttempts = 5

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		JWT: config.JWTConfig{
			Secret:   "auth-service-test-secret",
			TokenTTL: 24 * time.Hour,
		},
		TwoFactor: config.TwoFactorConfig{
			Issuer:          "idol-platform",
			ReplayWindow:    90 * time.Second,
			MaxAttempts:     testMaxAttempts,
			LockoutDuration: 15 * time.Minute,
		},
		Hashing: config.HashingConfig{
			Argon2MemoryKiB:   8 * 1024,
			Argon2Iterations:  1,
			Argon2Parallelism: 1,
		},
	}
}

type authFixture struct {
	svc     *AuthService
	users   *fakeUserRepo
	limiter *fakeLimiter
	codec   *auth.TokenCodec
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := testConfig()

	users := newFakeUserRepo()
	limiter := newFakeLimiter(testMaxAttempts)
	codec := auth.NewTokenCodec(cfg)
	recorder := audit.NewRecorder(nil, nil, nil, zap.NewNop())
	t.Cleanup(recorder.Close)

	svc := NewAuthService(
		users,
		auth.NewHasher(cfg),
		auth.NewTOTPEngine(cfg),
		codec,
		encryption.NewManager(cfg, nil),
		newFakeReplayCache(),
		limiter,
		recorder,
		cfg,
		zap.NewNop(),
	)

	return &authFixture{svc: svc, users: users, limiter: limiter, codec: codec}
}

func (fx *authFixture) register(t *testing.T, username string, enable2FA bool) *AuthResult {
	t.Helper()
	result, err := fx.svc.Register(context.Background(), &RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password-" + username,
		EnableTwoFactor: enable2FA,
	}, "127.0.0.1")
	require.NoError(t, err)
	return result
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	return code
}

func TestRegisterWithoutTwoFactor(t *testing.T) {
	fx := newAuthFixture(t)

	result := fx.register(t, "alice", false)

	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.TwoFactorSecret)
	assert.Empty(t, result.ProvisioningURI)
	assert.False(t, result.User.TwoFactorEnabled)
	assert.Equal(t, model.StatusActive, result.User.Status)

	claims, err := fx.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.False(t, claims.TwoFactorEnabled)
	assert.False(t, claims.Interim())

	stored, err := fx.users.GetUserByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "password-alice", stored.PasswordHash)
	assert.Empty(t, stored.TwoFactorSecret)
}

func TestRegisterWithTwoFactor(t *testing.T) {
	fx := newAuthFixture(t)

	result := fx.register(t, "bob", true)

	assert.NotEmpty(t, result.TwoFactorSecret)
	assert.Contains(t, result.ProvisioningURI, "otpauth://totp/")
	assert.True(t, result.User.TwoFactorEnabled)
	assert.False(t, result.User.TwoFactorVerified)

	// The first token is interim: password proven, second factor pending.
	claims, err := fx.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.True(t, claims.Interim())

	// The stored secret is an encrypted envelope, never the plaintext.
	stored, err := fx.users.GetUserByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.TwoFactorSecret)
	assert.NotEqual(t, result.TwoFactorSecret, stored.TwoFactorSecret)
	assert.NotContains(t, stored.TwoFactorSecret, result.TwoFactorSecret)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice", false)

	_, err := fx.svc.Register(context.Background(), &RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "some-password",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = fx.svc.Register(context.Background(), &RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "some-password",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Register(context.Background(), &RegisterRequest{
		Username: "alice",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice", false)

	result, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "alice",
		Password: "password-alice",
	}, "127.0.0.1")
	require.NoError(t, err)

	claims, err := fx.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.False(t, claims.TwoFactorEnabled)
	assert.False(t, claims.Interim())
	assert.Equal(t, "alice", result.User.Username)
}

func TestLoginUniformFailure(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice", false)

	// Unknown username and wrong password fail identically.
	_, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "nobody",
		Password: "whatever",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.svc.Login(context.Background(), &LoginRequest{
		Username: "alice",
		Password: "wrong-password",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	fx := newAuthFixture(t)
	result := fx.register(t, "alice", false)

	require.NoError(t, fx.users.UpdateUserStatus(context.Background(), result.User.ID, model.StatusSuspended))

	_, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "alice",
		Password: "password-alice",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrAccountSuspended)
}

func TestLoginTwoFactorWithoutCodeReturnsInterim(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "bob", true)

	result, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "bob",
		Password: "password-bob",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrTwoFactorRequired)
	require.NotNil(t, result)

	claims, decodeErr := fx.codec.Decode(result.Token)
	require.NoError(t, decodeErr)
	assert.True(t, claims.Interim())
}

func TestLoginTwoFactorWithCode(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "bob", true)

	result, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username:      "bob",
		Password:      "password-bob",
		TwoFactorCode: currentCode(t, reg.TwoFactorSecret),
	}, "127.0.0.1")
	require.NoError(t, err)

	claims, err := fx.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.True(t, claims.TwoFactorEnabled)
	assert.True(t, claims.TwoFactorVerified)
	assert.True(t, result.User.TwoFactorVerified)
}

func TestLoginTwoFactorWrongCode(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "bob", true)

	_, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username:      "bob",
		Password:      "password-bob",
		TwoFactorCode: "000000",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice", false)

	for i := 0; i < testMaxAttempts; i++ {
		_, err := fx.svc.Login(context.Background(), &LoginRequest{
			Username: "alice",
			Password: "wrong-password",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Locked out now, even with the right password.
	_, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "alice",
		Password: "password-alice",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLoginSuccessResetsFailureCount(t *testing.T) {
	fx := newAuthFixture(t)
	fx.register(t, "alice", false)

	for i := 0; i < testMaxAttempts-1; i++ {
		_, err := fx.svc.Login(context.Background(), &LoginRequest{
			Username: "alice",
			Password: "wrong-password",
		}, "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := fx.svc.Login(context.Background(), &LoginRequest{
		Username: "alice",
		Password: "password-alice",
	}, "127.0.0.1")
	require.NoError(t, err)

	locked, err := fx.limiter.Locked(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestVerifyTwoFactor(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "bob", true)

	result, err := fx.svc.VerifyTwoFactor(context.Background(),
		reg.User.ID, currentCode(t, reg.TwoFactorSecret), "127.0.0.1")
	require.NoError(t, err)

	claims, err := fx.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.True(t, claims.TwoFactorEnabled)
	assert.True(t, claims.TwoFactorVerified)
	assert.False(t, claims.Interim())
}

func TestVerifyTwoFactorRejectsReplay(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "bob", true)
	code := currentCode(t, reg.TwoFactorSecret)

	_, err := fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, code, "127.0.0.1")
	require.NoError(t, err)

	// The same code within the same time step is burned.
	_, err = fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, code, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
}

func TestVerifyTwoFactorRejectsWrongCode(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "bob", true)

	_, err := fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, "123456", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	_, err = fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, "", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
}

func TestVerifyTwoFactorWithoutEnrollment(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "alice", false)

	_, err := fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, "123456", "127.0.0.1")
	assert.ErrorIs(t, err, ErrTwoFactorNotEnabled)
}

func TestVerifyTwoFactorUnknownUser(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.VerifyTwoFactor(context.Background(), uuid.New(), "123456", "127.0.0.1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyTwoFactorLockout(t *testing.T) {
	fx := newAuthFixture(t)
	reg := fx.register(t, "bob", true)

	for i := 0; i < testMaxAttempts; i++ {
		_, err := fx.svc.VerifyTwoFactor(context.Background(), reg.User.ID, "999999", "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
	}

	_, err := fx.svc.VerifyTwoFactor(context.Background(),
		reg.User.ID, currentCode(t, reg.TwoFactorSecret), "127.0.0.1")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}
