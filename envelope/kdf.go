package envelope

import (
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// MinKDFIterations is the floor spec §6 sets for the PBKDF2 work factor.
// DeriveKey rejects anything below it rather than silently upgrading the
// caller's choice.
const MinKDFIterations = 10000

// SaltSize is the recommended salt length for DeriveKey, matching the
// 128-bit salts produced by NewSalt.
const SaltSize = 16

var errIterationsTooLow = errors.New("iterations below minimum of 10000")

// DeriveKey derives a 32-byte AES-256 key from password and salt using
// PBKDF2-HMAC-SHA-512. iterations must be at least MinKDFIterations.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if iterations < MinKDFIterations {
		return nil, &Error{Code: CodeInvalidInput, Op: "DeriveKey", Err: errIterationsTooLow}
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha512.New), nil
}

// NewSalt returns a fresh CSPRNG salt suitable for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, &Error{Code: CodeFailure, Op: "NewSalt", Err: err}
	}
	return salt, nil
}

// NewKey returns a fresh CSPRNG AES-256 key, bypassing PBKDF2 entirely for
// callers that manage key material directly rather than deriving it from a
// password.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, &Error{Code: CodeFailure, Op: "NewKey", Err: err}
	}
	return key, nil
}
