// Package cryptox turns passwords into stored verifiers and checks login
// attempts against them.
//
// A password is stretched with Argon2id over a per-user random salt; only
// SHA-256 of the derived key (the verifier) is persisted.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes in a freshly generated salt.
const SaltSize = 32

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashPassword returns the verifier to store for password under salt.
// The derived key is wiped before returning.
func HashPassword(password, salt []byte) []byte {
	key := DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}

// CheckPassword reports whether password hashes to verifier under salt.
// The comparison runs in constant time.
func CheckPassword(password, salt, verifier []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}
