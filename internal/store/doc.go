// Package store provides file-based persistence for cipherxfer.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Identity key pairs as PEM files (IdentityFileStore), optionally sealed
//     under a passphrase
//   - Named file blobs in a directory (BlobFileStore) or in a badger
//     database (BlobBadgerStore)
//
// All methods are concurrency-safe. Blob names are restricted to a single
// path element; anything else yields domain.ErrInvalidName.
//
// Private keys are unencrypted at rest unless a passphrase is configured.
// That is acceptable only for a local simulation.
package store
