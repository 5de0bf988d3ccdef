package pin

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a PIN with Argon2id.
func DeriveKey(pin []byte, salt []byte) []byte {
	return argon2.IDKey(pin, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value stored to recognise a derived key.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}
