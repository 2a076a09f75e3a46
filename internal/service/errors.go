package service

import "errors"

// Expected failure taxonomy. Handlers map these to HTTP statuses; anything
// else is a 500 with a generic message. "Invalid credentials" deliberately
// does not distinguish unknown-user from wrong-password.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountSuspended     = errors.New("account suspended")
	ErrTwoFactorRequired    = errors.New("two-factor authentication code required")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor authentication code")
	ErrTwoFactorNotEnabled  = errors.New("two-factor authentication not enabled for this user")
	ErrTooManyAttempts      = errors.New("too many failed attempts, try again later")
	ErrDuplicateAccount     = errors.New("username, email, or wallet address already taken")
	ErrDuplicateHandle      = errors.New("x handle already exists")
	ErrNotFound             = errors.New("record not found")
	ErrValidation           = errors.New("missing required fields")
)
