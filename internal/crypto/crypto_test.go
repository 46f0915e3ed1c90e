package crypto_test

import (
	"crypto/rsa"
	"sync"
	"testing"

	"cipherxfer/internal/crypto"
)

var (
	keysOnce sync.Once
	keyA     *rsa.PrivateKey
	keyB     *rsa.PrivateKey
	keysErr  error
)

// testKeys returns two distinct identities, generated once per test binary.
func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		keyA, keysErr = crypto.GenerateRSA()
		if keysErr != nil {
			return
		}
		keyB, keysErr = crypto.GenerateRSA()
	})
	if keysErr != nil {
		t.Fatalf("GenerateRSA: %v", keysErr)
	}
	return keyA, keyB
}
