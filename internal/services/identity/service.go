package identity

import (
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrPeerKeyMissing means the other role's public key was never
	// distributed to this machine.
	ErrPeerKeyMissing = errors.New("peer public key missing")
)

// Service builds keyrings and fingerprints from a backing store.
//
// Each process holds:
//   - its own role's RSA key pair, for signing and unwrapping session keys.
//   - the peer role's RSA public key, for verifying and wrapping.
type Service struct {
	store        domain.IdentityStore
	log          logrus.FieldLogger
	generatePeer bool
}

// Option configures a Service.
type Option func(*Service)

// WithPeerGeneration lets Keyring create the peer's whole identity locally
// when its public key is missing. Only useful when both roles run on one
// machine.
func WithPeerGeneration(on bool) Option { return func(s *Service) { s.generatePeer = on } }

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore, log logrus.FieldLogger, opts ...Option) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	svc := &Service{store: s, log: log}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Keyring loads (or creates) the identity for self and the peer's public key.
//
// Keys are normally distributed out of band, and a missing peer public key
// is ErrPeerKeyMissing. With WithPeerGeneration the peer identity is
// generated locally instead.
func (s *Service) Keyring(self domain.Role) (domain.Keyring, error) {
	id, err := s.store.LoadOrCreateIdentity(self)
	if err != nil {
		return domain.Keyring{}, fmt.Errorf("load %s identity: %w", self, err)
	}

	peer := self.Peer()
	pub, err := s.store.LoadPublicKey(peer)
	if errors.Is(err, os.ErrNotExist) && !s.generatePeer {
		return domain.Keyring{}, fmt.Errorf("%w: %s (run keygen, or copy %s_pub.pem into the keys dir): %w",
			ErrPeerKeyMissing, peer, peer, err)
	}
	if errors.Is(err, os.ErrNotExist) {
		s.log.WithField("role", peer).Warn("peer public key missing, generating a local identity for it")
		var peerID domain.Identity
		if peerID, err = s.store.LoadOrCreateIdentity(peer); err == nil {
			pub = peerID.Public
		}
	}
	if err != nil {
		return domain.Keyring{}, fmt.Errorf("load %s public key: %w", peer, err)
	}
	return domain.Keyring{Self: id, Peer: pub}, nil
}

// Provision makes sure both role identities exist and returns them.
func (s *Service) Provision() ([]domain.Identity, error) {
	out := make([]domain.Identity, 0, 2)
	for _, role := range []domain.Role{domain.RoleClient, domain.RoleServer} {
		id, err := s.store.LoadOrCreateIdentity(role)
		if err != nil {
			return nil, fmt.Errorf("provision %s: %w", role, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Fingerprint returns a short fingerprint of role's public key.
func (s *Service) Fingerprint(role domain.Role) (domain.Fingerprint, error) {
	pub, err := s.store.LoadPublicKey(role)
	if err != nil {
		return "", err
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(fp), nil
}

// CheckPassphrase applies the strength policy to a passphrase that is about
// to seal new key files. An empty passphrase means unsealed keys and passes.
func CheckPassphrase(passphrase string) error {
	if passphrase == "" || isSecurePassphrase(passphrase) {
		return nil
	}
	return ErrWeakPassphrase
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.KeyringService.
var _ domain.KeyringService = (*Service)(nil)
