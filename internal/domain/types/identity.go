package types

import "crypto/rsa"

// Identity holds one role's long-term RSA key pair.
type Identity struct {
	Role    Role
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Keyring is the key material a process needs for one side of the protocol:
// its own identity for signing and unwrapping, and the peer's public key for
// verifying and wrapping. It is immutable after load.
type Keyring struct {
	Self Identity
	Peer *rsa.PublicKey
}
