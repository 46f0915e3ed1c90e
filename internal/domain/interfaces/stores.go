package interfaces

import (
	"crypto/rsa"

	domaintypes "cipherxfer/internal/domain/types"
)

// IdentityStore persists long-term identity key pairs by role.
type IdentityStore interface {
	// LoadOrCreateIdentity returns the stored pair for role, generating and
	// persisting a fresh one when either half is missing.
	LoadOrCreateIdentity(role domaintypes.Role) (domaintypes.Identity, error)
	// LoadPublicKey returns only the public half for role.
	LoadPublicKey(role domaintypes.Role) (*rsa.PublicKey, error)
}

// BlobStore keeps named byte blobs. Put overwrites; Get reports
// domain.ErrNotFound for absent names. Writes to the same name are
// mutually exclusive.
type BlobStore interface {
	Put(name string, data []byte) error
	Get(name string) ([]byte, error)
}
