// Package identity assembles the key material each side of the protocol
// runs with.
//
// It loads or generates the two role identities through a
// domain.IdentityStore, builds the immutable Keyring handed to the protocol
// components, and enforces the passphrase policy for sealed key files.
package identity
