package rand

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

// NewRand returns a prng, that is seeded with OS randomness.
// The OS randomness is obtained from crypto/rand, however, like with any
// math/rand.Rand object none of the provided methods are suitable for
// cryptographic usage.
func NewRand() *mrand.Rand {
	var seed int64
	_ = binary.Read(crand.Reader, binary.BigEndian, &seed)
	return mrand.New(mrand.NewSource(seed))
}

// Interval returns a duration drawn uniformly from [min, max) using r.
// If max <= min, min is returned.
func Interval(r *mrand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Int63n(int64(max-min)))
}
