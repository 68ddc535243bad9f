// Package ring implements the position-hashing and modular range
// arithmetic shared by every other dht package: the finger table,
// the wire codec's key routing, and the node runtime all place keys
// and nodes on a ring of size 2^m using the helpers here.
package ring

import (
	"crypto/md5"
	"encoding/binary"
)

// MaxSizeFactor is the largest ring exponent this implementation
// supports; positions are carried as uint32, so m cannot exceed 32.
const MaxSizeFactor = 32

// HashMD5 returns the 16-byte MD5 digest of b.
func HashMD5(b []byte) [16]byte {
	return md5.Sum(b)
}

// PositionOf maps name (a node endpoint string or a raw key) onto the
// ring [0, 2^m) by taking the big-endian interpretation of MD5(name)
// modulo 2^m.
func PositionOf(name []byte, m uint) uint64 {
	digest := HashMD5(name)
	hi := binary.BigEndian.Uint64(digest[:8])
	lo := binary.BigEndian.Uint64(digest[8:])

	// 128-bit value (hi:lo) mod 2^m. For m <= 64, 2^64 is a multiple of
	// 2^m, so hi drops out and the result is lo mod 2^m; the reduction
	// below still folds hi in explicitly. m >= 64 is never reached here
	// (m <= MaxSizeFactor); a uint64 result can carry only the low 64
	// bits of the position, which are lo.
	if m >= 64 {
		return lo
	}
	mod := uint64(1) << m
	// (hi * 2^64 + lo) mod mod == ((hi mod mod) * (2^64 mod mod) + lo mod mod) mod mod
	hiMod := hi % mod
	twoPow64Mod := modPow2(64, mod)
	return ((hiMod*twoPow64Mod)%mod + lo%mod) % mod
}

// modPow2 returns 2^exp mod mod without overflow, for exp up to 64.
func modPow2(exp uint, mod uint64) uint64 {
	result := uint64(1) % mod
	base := uint64(2) % mod
	for i := uint(0); i < exp; i++ {
		result = (result * base) % mod
	}
	return result
}

// InWraparoundRange reports whether c lies on the arc from a to b on a
// ring of size M, honoring the requested inclusivity of each endpoint.
// This is the single predicate every ring-ownership test in this
// module (successor ranges, finger invariants, nearest-preceding-finger
// scans) is built from; its tie-breaking rules are part of the wire
// contract, not an implementation detail, so they are spelled out
// explicitly rather than derived from a single comparison expression.
func InWraparoundRange(a, b, c, M uint64, aIncl, bIncl bool) bool {
	_ = M // M only matters in that a,b,c are already reduced mod M by callers
	switch {
	case c == a:
		return aIncl
	case c == b:
		return bIncl
	case a == b:
		return false
	case a < b:
		return a < c && c < b
	default: // a > b, arc wraps through 0
		return c > a || c < b
	}
}
