// Package hash derives independent, reproducible random number streams
// from session seeds using XXH3.
//
// Several scheduling components draw randomness per worker: probabilistic
// chunk sizing, random victim selection and steal backoff jitter. Seeding
// each stream with `seed + workerID` would correlate adjacent workers, so
// streams are instead derived by hashing the (seed, stream) pair through
// XXH3, which decorrelates neighboring identifiers at negligible cost.
package hash

import (
	"encoding/binary"
	rand "math/rand/v2"

	"github.com/zeebo/xxh3"
)

// goldenGamma is the 64-bit golden ratio increment used to derive the second
// PCG word from the first, matching SplitMix64's stream constant.
const goldenGamma = 0x9e3779b97f4a7c15

// Mix folds a session seed and a stream identifier into a single 64-bit
// value with XXH3.
//
// Parameters:
//   - seed: Session seed shared by all streams
//   - stream: Stream identifier (worker index, queue index, ...)
//
// Returns:
//   - uint64: Decorrelated 64-bit seed for the stream
func Mix(seed, stream uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], stream)

	return xxh3.Hash(buf[:])
}

// Stream creates a PCG random source for the given (seed, stream) pair.
//
// Streams with equal arguments produce identical sequences, making
// randomized scheduling decisions reproducible under a fixed session seed.
//
// Parameters:
//   - seed: Session seed shared by all streams
//   - stream: Stream identifier (worker index, queue index, ...)
//
// Returns:
//   - *rand.Rand: Independent deterministic random source
func Stream(seed, stream uint64) *rand.Rand {
	s := Mix(seed, stream)

	return rand.New(rand.NewPCG(s, s^goldenGamma))
}
