package auth

import (
	"context"
	"time"
)

// ReplayCache tracks TOTP codes that were already accepted, so a code
// cannot be replayed within its validity window. MarkUsed returns false
// when the (account, step) pair was already recorded.
type ReplayCache interface {
	MarkUsed(ctx context.Context, userID string, step int64, ttl time.Duration) (bool, error)
}

// AttemptLimiter throttles repeated authentication failures per account.
type AttemptLimiter interface {
	// RecordFailure increments the failure counter and returns the new count.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Locked reports whether the account is currently locked out.
	Locked(ctx context.Context, key string) (bool, error)
	// Reset clears the counter after a successful authentication.
	Reset(ctx context.Context, key string) error
}
