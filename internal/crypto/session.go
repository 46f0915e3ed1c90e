package crypto

import (
	"crypto/aes"
	"crypto/rand"

	"cipherxfer/internal/util/memzero"
)

const (
	SessionKeyBytes = 32
	IVBytes         = aes.BlockSize
)

// SessionKey is the symmetric key material of exactly one transfer.
type SessionKey struct {
	Key [SessionKeyBytes]byte
	IV  [IVBytes]byte
}

// NewSessionKey returns a random key and IV.
func NewSessionKey() (SessionKey, error) {
	var sk SessionKey
	if _, err := rand.Read(sk.Key[:]); err != nil {
		return sk, err
	}
	if _, err := rand.Read(sk.IV[:]); err != nil {
		return sk, err
	}
	return sk, nil
}

// Wipe zeroes the key bytes.
func (sk *SessionKey) Wipe() {
	memzero.Zero(sk.Key[:])
}
