package interfaces

import (
	"context"

	domaintypes "cipherxfer/internal/domain/types"
)

// KeyringService assembles the key material one side of the protocol needs.
type KeyringService interface {
	Keyring(self domaintypes.Role) (domaintypes.Keyring, error)
	Fingerprint(role domaintypes.Role) (domaintypes.Fingerprint, error)
}

// TransferClient is what front ends call. Download reports the number of
// bytes stored locally.
type TransferClient interface {
	Upload(ctx context.Context, path string) error
	Download(ctx context.Context, name string) (int, error)
}
