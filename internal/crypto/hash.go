package crypto

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the SHA-512 digest of b.
func Hash(b []byte) [sha512.Size]byte {
	return sha512.Sum512(b)
}

// ContentHash returns hex(SHA-512(iv || ciphertext)).
func ContentHash(iv, ciphertext []byte) string {
	h := sha512.New()
	h.Write(iv)
	h.Write(ciphertext)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckContentHash reports whether want matches the digest of iv||ciphertext.
func CheckContentHash(iv, ciphertext []byte, want string) bool {
	got := ContentHash(iv, ciphertext)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
