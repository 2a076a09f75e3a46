package auth

import (
	"time"

	"idol-platform/internal/config"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPEngine generates per-account shared secrets and verifies
// time-windowed one-time codes.
type TOTPEngine struct {
	issuer string
	skew   uint
}

func NewTOTPEngine(cfg *config.Config) *TOTPEngine {
	return &TOTPEngine{
		issuer: cfg.TwoFactor.Issuer,
		// Accept the current and adjacent 30s steps to tolerate clock drift.
		skew: 1,
	}
}

// GenerateSecret returns a fresh random base32 secret for the account along
// with its otpauth provisioning URI. The caller is responsible for one-time
// display; the secret is never returned again.
func (e *TOTPEngine) GenerateSecret(accountName string) (secret, provisioningURI string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyCode checks the supplied numeric code against the secret for the
// current time step and the skew window around it.
func (e *TOTPEngine) VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// TimeStep returns the current TOTP time step counter. Replay tracking keys
// accepted codes by (account, step).
func (e *TOTPEngine) TimeStep(now time.Time) int64 {
	return now.UTC().Unix() / 30
}
