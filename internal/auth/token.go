package auth

import (
	"errors"
	"strings"
	"time"

	"idol-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every decode failure: bad signature, unexpected
// algorithm, malformed payload, expiry. Callers get this sentinel and
// nothing more specific, so nothing internal leaks past the boundary.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the facts embedded in a session token. Every claim set decoded
// from a valid token was produced by Issue; the signature covers all fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID            string `json:"userId"`
	TwoFactorEnabled  bool   `json:"twoFactorEnabled"`
	TwoFactorVerified bool   `json:"twoFactorVerified"`
}

// Interim reports whether this is an interim token: password verified but
// the second factor still outstanding. Interim tokens reach only the
// 2FA-verify route.
func (c *Claims) Interim() bool {
	return c.TwoFactorEnabled && !c.TwoFactorVerified
}

// TokenCodec issues and verifies signed session tokens. The signing secret
// is injected at construction and immutable for the process lifetime.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(cfg *config.Config) *TokenCodec {
	return &TokenCodec{
		secret: []byte(cfg.JWT.Secret),
		ttl:    cfg.JWT.TokenTTL,
	}
}

// Issue mints a token with a fixed validity window from now. Tokens are
// immutable; flipping a claim means minting a replacement.
func (c *TokenCodec) Issue(userID uuid.UUID, twoFactorEnabled, twoFactorVerified bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID:            userID.String(),
		TwoFactorEnabled:  twoFactorEnabled,
		TwoFactorVerified: twoFactorVerified,
	})

	return token.SignedString(c.secret)
}

// Decode verifies signature and expiry and returns the typed claims, or
// ErrInvalidToken. It never panics past this boundary.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearer pulls the token out of an Authorization header value.
// Returns "" when the header is absent or not of the form "Bearer <token>".
func ExtractBearer(authorization string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}
