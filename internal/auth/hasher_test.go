package auth

import (
	"strings"
	"testing"

	"idol-platform/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHasher() *Hasher {
	// Low-cost parameters keep the test fast; the digest format is identical.
	return NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryKiB:   8 * 1024,
			Argon2Iterations:  1,
			Argon2Parallelism: 1,
		},
	})
}

func TestHashProducesUniqueDigests(t *testing.T) {
	h := testHasher()

	first, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	second, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same password must salt to different digests")
	assert.True(t, strings.HasPrefix(first, "$argon2id$v="))
}

func TestVerifyRoundTrip(t *testing.T) {
	h := testHasher()

	digest, err := h.Hash("hunter2hunter2")
	require.NoError(t, err)

	assert.True(t, h.Verify("hunter2hunter2", digest))
	assert.False(t, h.Verify("hunter2hunter3", digest))
	assert.False(t, h.Verify("", digest))
}

func TestVerifySurvivesParameterChange(t *testing.T) {
	old := NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryKiB:   8 * 1024,
			Argon2Iterations:  1,
			Argon2Parallelism: 1,
		},
	})
	digest, err := old.Hash("longlived-password")
	require.NoError(t, err)

	// A hasher with different costs still verifies old digests because the
	// parameters are read from the digest itself.
	current := NewHasher(&config.Config{
		Hashing: config.HashingConfig{
			Argon2MemoryKiB:   16 * 1024,
			Argon2Iterations:  2,
			Argon2Parallelism: 2,
		},
	})
	assert.True(t, current.Verify("longlived-password", digest))
}

func TestVerifyRejectsMalformedDigests(t *testing.T) {
	h := testHasher()

	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$salt",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	}
	for _, digest := range cases {
		assert.False(t, h.Verify("any-password", digest), "digest %q must not verify", digest)
	}
}
