package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
)

// KeyBits is the modulus size of identity keys.
const KeyBits = 2048

// ErrDecryption is returned for malformed or mismatched-key RSA ciphertext.
var ErrDecryption = errors.New("decryption failed")

// GenerateRSA returns a fresh identity key pair.
func GenerateRSA() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeyBits)
}

// EncryptRSA wraps a small payload (a session key) under pub using OAEP-SHA256.
func EncryptRSA(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
}

// DecryptRSA unwraps ciphertext produced by EncryptRSA.
func DecryptRSA(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return pt, nil
}

// Sign signs msg with priv over its SHA-512 digest.
func Sign(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	sum := sha512.Sum512(msg)
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA512, sum[:])
}

// Verify reports whether sig is a valid signature of msg under pub. It never
// fails loudly: any mismatch, corruption or missing key is simply false.
func Verify(pub *rsa.PublicKey, sig, msg []byte) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	sum := sha512.Sum512(msg)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA512, sum[:], sig) == nil
}
