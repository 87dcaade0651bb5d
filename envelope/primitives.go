package envelope

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
)

// HashSHA256 returns the SHA-256 digest of data. Spec §6 calls this a
// standard construction with no idiomatic third-party replacement.
func HashSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashSHA512 returns the SHA-512 digest of data.
func HashSHA512(data []byte) [64]byte {
	return sha512.Sum512(data)
}

// MACSHA256 computes an HMAC-SHA-256 over data under key.
func MACSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyMACSHA256 reports whether mac is the correct HMAC-SHA-256 of data
// under key, using a constant-time comparison to avoid leaking timing
// information about how far the candidate diverges.
func VerifyMACSHA256(key, data, mac []byte) bool {
	expected := MACSHA256(key, data)
	return subtle.ConstantTimeCompare(expected, mac) == 1
}

// ConstantTimeEqual reports whether a and b are byte-for-byte equal,
// without branching on the position of the first mismatch.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
