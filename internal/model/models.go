package model

import (
	"time"

	"github.com/google/uuid"
)

// Account status values. Password hash and two-factor fields are mutated
// only through the auth flows, never by generic record updates.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User is the primary account record. TwoFactorSecret is stored encrypted
// and is non-empty exactly when TwoFactorEnabled is true.
type User struct {
	UserBucket       int       `json:"-" db:"user_bucket"`
	UserID           uuid.UUID `json:"id" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	WalletAddress    string    `json:"walletAddress,omitempty" db:"wallet_address"`
	Status           string    `json:"status" db:"status"`
	Verified         bool      `json:"verified" db:"verified"`
	Credits          int64     `json:"credits" db:"credits"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled" db:"two_factor_enabled"`
	TwoFactorSecret  string    `json:"-" db:"two_factor_secret"`
	JoinedAt         time.Time `json:"joinedAt" db:"joined_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Suspended reports whether the account is suspended.
func (u *User) Suspended() bool {
	return u.Status == StatusSuspended
}

// Admin is the administrative account variant.
type Admin struct {
	AdminID      uuid.UUID `json:"id" db:"admin_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Idol is a managed performer record.
type Idol struct {
	IdolID               uuid.UUID `json:"id" db:"idol_id"`
	XHandle              string    `json:"xHandle" db:"x_handle"`
	Name                 string    `json:"name" db:"name"`
	CharacterDescription string    `json:"characterDescription" db:"character_description"`
	Setting              string    `json:"setting" db:"setting"`
	IdolType             string    `json:"idolType" db:"idol_type"`
	IdolImage            string    `json:"idolImage" db:"idol_image"`
	LaunchTiming         time.Time `json:"launchTiming" db:"launch_timing"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the client-facing projection of a User. The password hash
// and two-factor secret never leave the service boundary through it.
type PublicUser struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	WalletAddress     string    `json:"walletAddress,omitempty"`
	Status            string    `json:"status"`
	Verified          bool      `json:"verified"`
	Credits           int64     `json:"credits"`
	TwoFactorEnabled  bool      `json:"twoFactorEnabled"`
	TwoFactorVerified bool      `json:"twoFactorVerified"`
	JoinedAt          time.Time `json:"joinedAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Public projects the user for API responses.
func (u *User) Public(twoFactorVerified bool) *PublicUser {
	return &PublicUser{
		ID:                u.UserID,
		Username:          u.Username,
		Email:             u.Email,
		WalletAddress:     u.WalletAddress,
		Status:            u.Status,
		Verified:          u.Verified,
		Credits:           u.Credits,
		TwoFactorEnabled:  u.TwoFactorEnabled,
		TwoFactorVerified: twoFactorVerified,
		JoinedAt:          u.JoinedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
