package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"cipherxfer/internal/util/memzero"
)

const (
	// The current supported version of the sealed key file format.
	keyFileFormatVersion = 1

	sealedPEMType = "CIPHERXFER SEALED PRIVATE KEY"
)

var (
	// Returned when the passphrase is incorrect or the key file has been modified / corrupted.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	// Returned when a sealed key file is found but no passphrase was configured.
	errPassphraseRequired = errors.New("key file is sealed; passphrase required")
)

// sealPrivatePEM encrypts a PEM-encoded private key under a key derived from
// passphrase. The scrypt parameters, salt and nonce travel in PEM headers; the
// role is bound as associated data so files cannot be swapped between roles.
func sealPrivatePEM(passphrase string, role string, plainPEM []byte) ([]byte, error) {
	N, r, p := scryptParamsDefault()

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plainPEM, []byte(role))

	return pem.EncodeToMemory(&pem.Block{
		Type: sealedPEMType,
		Headers: map[string]string{
			"Version":  strconv.Itoa(keyFileFormatVersion),
			"Scrypt-N": strconv.Itoa(N),
			"Scrypt-R": strconv.Itoa(r),
			"Scrypt-P": strconv.Itoa(p),
			"Salt":     hex.EncodeToString(salt),
			"Nonce":    hex.EncodeToString(nonce),
		},
		Bytes: ct,
	}), nil
}

// openPrivatePEM reverses sealPrivatePEM. Data that is not a sealed block is
// returned unchanged so unencrypted key files keep loading.
func openPrivatePEM(passphrase string, role string, data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != sealedPEMType {
		return data, nil
	}
	if passphrase == "" {
		return nil, errPassphraseRequired
	}

	v, err := strconv.Atoi(block.Headers["Version"])
	if err != nil || v > keyFileFormatVersion {
		return nil, fmt.Errorf("unsupported key file version %q", block.Headers["Version"])
	}
	N, errN := strconv.Atoi(block.Headers["Scrypt-N"])
	r, errR := strconv.Atoi(block.Headers["Scrypt-R"])
	p, errP := strconv.Atoi(block.Headers["Scrypt-P"])
	salt, errS := hex.DecodeString(block.Headers["Salt"])
	nonce, errNonce := hex.DecodeString(block.Headers["Nonce"])
	if err := errors.Join(errN, errR, errP, errS, errNonce); err != nil {
		return nil, fmt.Errorf("sealed key headers: %w", err)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, errWrongPassphrase
	}

	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, block.Bytes, []byte(role))
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }
