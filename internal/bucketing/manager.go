package bucketing

import (
	"hash"
	"sync"

	"idol-platform/internal/config"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// Manager assigns records to stable partition buckets so wide Scylla rows
// stay bounded. The same ID always lands in the same bucket.
type Manager struct {
	userBuckets int
	hasherPool  sync.Pool
}

func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		userBuckets: cfg.Bucketing.UserBuckets,
	}

	// Pool hashers to avoid per-call allocation on the hot path.
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return m
}

// UserBucket returns the partition bucket for a user ID (0..userBuckets-1).
func (m *Manager) UserBucket(userID uuid.UUID) int {
	return m.bucket(userID.String(), m.userBuckets)
}

// KeyBucket returns a bucket for an arbitrary string key.
func (m *Manager) KeyBucket(key string) int {
	return m.bucket(key, m.userBuckets)
}

// UserBuckets returns the configured bucket count.
func (m *Manager) UserBuckets() int {
	return m.userBuckets
}

func (m *Manager) bucket(key string, numBuckets int) int {
	if numBuckets <= 0 {
		return 0
	}
	return int(m.hash(key) % uint64(numBuckets))
}

func (m *Manager) hash(key string) uint64 {
	hasher := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
