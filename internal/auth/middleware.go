package auth

import (
	"context"
	"fmt"
	"net/http"

	"idol-platform/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderUserID carries the resolved identity to downstream handlers.
const HeaderUserID = "X-User-Id"

type contextKey int

const identityKey contextKey = iota

// Identity is the admitted caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Claims *Claims
}

// IdentityFromContext returns the identity the gate attached, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// AccountSource is the credential-store lookup the gate needs for the
// strict suspension check. The gate consults the store, it never owns it.
type AccountSource interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// Gate is the per-request authorization policy: admit, reject(401),
// reject(403, needs-2FA), or pass through for unauthenticated routes.
type Gate struct {
	codec      *TokenCodec
	accounts   AccountSource
	logger     *zap.Logger
	open       map[string]struct{}
	verifyPath string
}

func NewGate(codec *TokenCodec, accounts AccountSource, logger *zap.Logger) *Gate {
	return &Gate{
		codec:    codec,
		accounts: accounts,
		logger:   logger,
		open: map[string]struct{}{
			"/api/auth/login":    {},
			"/api/auth/register": {},
		},
		verifyPath: "/api/auth/verify-2fa",
	}
}

// Middleware applies the gate's decision procedure in order; first match
// wins. Unauthenticated routes are checked before anything else, and the
// interim-token rule before generic admission, so neither login nor the
// verify endpoint can be cut off and 2FA cannot be bypassed.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if _, ok := g.open[path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token := ExtractBearer(r.Header.Get("Authorization"))
		if token == "" {
			g.reject(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := g.codec.Decode(token)
		if err != nil {
			g.reject(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			g.reject(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// Fresh store lookup: suspension takes effect before token expiry
		// instead of trusting a stale claim.
		user, err := g.accounts.GetUserByID(r.Context(), userID)
		if err != nil {
			g.logger.Error("gate account lookup failed",
				zap.String("user_id", claims.UserID),
				zap.Error(err),
			)
			g.reject(w, http.StatusInternalServerError, "Authorization check failed")
			return
		}
		if user == nil {
			g.reject(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if user.Suspended() {
			g.reject(w, http.StatusForbidden, "Account suspended")
			return
		}

		if claims.Interim() && path != g.verifyPath {
			g.reject(w, http.StatusForbidden, "Two-factor authentication required")
			return
		}

		identity := &Identity{UserID: userID, Claims: claims}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		r = r.WithContext(ctx)
		r.Header.Set(HeaderUserID, claims.UserID)

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"success":false,"error":%q}`, message)
}
