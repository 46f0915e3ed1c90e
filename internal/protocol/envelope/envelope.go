package envelope

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
)

// ErrBadSessionKey means an unwrapped session key has the wrong length.
var ErrBadSessionKey = errors.New("session key has wrong length")

// CanonicalMetadata returns the exact bytes that are signed and verified.
// Metadata declares its fields in sorted key order, so encoding/json output
// is deterministic.
func CanonicalMetadata(m domain.Metadata) ([]byte, error) {
	return json.Marshal(m)
}

// ParseMetadata decodes canonical metadata bytes.
func ParseMetadata(b []byte) (domain.Metadata, error) {
	var m domain.Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.Metadata{}, err
	}
	if m.Name == "" || m.Size < 0 {
		return domain.Metadata{}, errors.New("metadata missing name or negative size")
	}
	return m, nil
}

// Seal encrypts plaintext for recipient and signs its metadata as signer.
// The plain session key never leaves this function.
func Seal(signer *rsa.PrivateKey, recipient *rsa.PublicKey, name string, plaintext []byte, now time.Time) (domain.Envelope, domain.Metadata, error) {
	sk, err := crypto.NewSessionKey()
	if err != nil {
		return domain.Envelope{}, domain.Metadata{}, fmt.Errorf("session key: %w", err)
	}
	defer sk.Wipe()

	ct, err := crypto.EncryptCBC(sk.Key[:], sk.IV[:], plaintext)
	if err != nil {
		return domain.Envelope{}, domain.Metadata{}, fmt.Errorf("encrypt: %w", err)
	}

	meta := domain.Metadata{Name: name, Size: int64(len(plaintext)), Timestamp: now.Unix()}
	metaBytes, err := CanonicalMetadata(meta)
	if err != nil {
		return domain.Envelope{}, domain.Metadata{}, fmt.Errorf("metadata: %w", err)
	}
	sig, err := crypto.Sign(signer, metaBytes)
	if err != nil {
		return domain.Envelope{}, domain.Metadata{}, fmt.Errorf("sign metadata: %w", err)
	}
	encSK, err := crypto.EncryptRSA(recipient, sk.Key[:])
	if err != nil {
		return domain.Envelope{}, domain.Metadata{}, fmt.Errorf("wrap session key: %w", err)
	}

	iv := make([]byte, len(sk.IV))
	copy(iv, sk.IV[:])
	return domain.Envelope{
		IV:                  iv,
		Ciphertext:          ct,
		ContentHash:         crypto.ContentHash(iv, ct),
		MetadataSignature:   sig,
		MetadataBytes:       metaBytes,
		EncryptedSessionKey: encSK,
	}, meta, nil
}

// UnwrapSessionKey recovers the symmetric key carried in a KEY or download
// DATA message.
func UnwrapSessionKey(priv *rsa.PrivateKey, encSK []byte) ([]byte, error) {
	key, err := crypto.DecryptRSA(priv, encSK)
	if err != nil {
		return nil, err
	}
	if len(key) != crypto.SessionKeyBytes {
		return nil, ErrBadSessionKey
	}
	return key, nil
}

// Verify runs the integrity, signature and metadata gates. Nothing in env
// is trusted until it returns an OK outcome.
func Verify(env domain.Envelope, sender *rsa.PublicKey) (domain.Metadata, VerificationOutcome) {
	if !crypto.CheckContentHash(env.IV, env.Ciphertext, env.ContentHash) {
		return domain.Metadata{}, reject(CauseIntegrity, domain.ErrIntegrity)
	}
	if !crypto.Verify(sender, env.MetadataSignature, env.MetadataBytes) {
		return domain.Metadata{}, reject(CauseSignature, domain.ErrAuthentication)
	}
	meta, err := ParseMetadata(env.MetadataBytes)
	if err != nil {
		return domain.Metadata{}, reject(CauseMalformed, fmt.Errorf("metadata: %w", err))
	}
	return meta, VerificationOutcome{}
}

// Decrypt recovers the plaintext of a verified envelope. A declared size
// that disagrees with the plaintext counts as a decryption failure.
func Decrypt(env domain.Envelope, meta domain.Metadata, key []byte) ([]byte, VerificationOutcome) {
	pt, err := crypto.DecryptCBC(key, env.IV, env.Ciphertext)
	if err != nil {
		return nil, reject(CauseDecryption, err)
	}
	if int64(len(pt)) != meta.Size {
		return nil, reject(CauseDecryption, fmt.Errorf("plaintext is %d bytes, metadata declares %d", len(pt), meta.Size))
	}
	return pt, VerificationOutcome{}
}

// OpenWithKey verifies env from sender and decrypts it with an already
// unwrapped session key (the upload path).
func OpenWithKey(env domain.Envelope, sender *rsa.PublicKey, key []byte) (domain.Metadata, []byte, VerificationOutcome) {
	meta, out := Verify(env, sender)
	if !out.OK() {
		return domain.Metadata{}, nil, out
	}
	pt, out := Decrypt(env, meta, key)
	if !out.OK() {
		return domain.Metadata{}, nil, out
	}
	return meta, pt, out
}

// Open verifies env from sender and decrypts it with the session key it
// carries, unwrapped by recipient (the download path).
func Open(env domain.Envelope, sender *rsa.PublicKey, recipient *rsa.PrivateKey) (domain.Metadata, []byte, VerificationOutcome) {
	meta, out := Verify(env, sender)
	if !out.OK() {
		return domain.Metadata{}, nil, out
	}
	key, err := UnwrapSessionKey(recipient, env.EncryptedSessionKey)
	if err != nil {
		return domain.Metadata{}, nil, reject(CauseDecryption, err)
	}
	pt, out := Decrypt(env, meta, key)
	if !out.OK() {
		return domain.Metadata{}, nil, out
	}
	return meta, pt, out
}
