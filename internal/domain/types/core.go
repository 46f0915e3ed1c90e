package types

// Role names one of the two long-lived identities.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// String returns the string form of the role.
func (r Role) String() string { return string(r) }

// Peer returns the opposite role.
func (r Role) Peer() Role {
	if r == RoleClient {
		return RoleServer
	}
	return RoleClient
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Handshake tokens. They travel as raw frames, outside the JSON object codec.
const (
	HelloToken = "Hello!"
	ReadyToken = "Ready!"
)
