package store

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
)

// IdentityFileStore persists RSA identities as PEM files under dir:
// <role>_priv.pem and <role>_pub.pem.
//
// Private keys are written unencrypted unless a passphrase is configured, in
// which case they are sealed with scrypt + ChaCha20-Poly1305.
type IdentityFileStore struct {
	dir        string
	passphrase string
	log        logrus.FieldLogger
	mu         sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir. An empty
// passphrase keeps private keys unencrypted at rest.
func NewIdentityFileStore(dir, passphrase string, log logrus.FieldLogger) *IdentityFileStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &IdentityFileStore{dir: dir, passphrase: passphrase, log: log}
}

func (s *IdentityFileStore) privPath(role domain.Role) string {
	return filepath.Join(s.dir, role.String()+"_priv.pem")
}

func (s *IdentityFileStore) pubPath(role domain.Role) string {
	return filepath.Join(s.dir, role.String()+"_pub.pem")
}

// LoadOrCreateIdentity loads the pair for role when both files exist and
// otherwise generates, persists and returns a fresh pair.
func (s *IdentityFileStore) LoadOrCreateIdentity(role domain.Role) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exists(s.privPath(role)) && exists(s.pubPath(role)) {
		return s.load(role)
	}
	return s.create(role)
}

// LoadPublicKey reads only the public half for role.
func (s *IdentityFileStore) LoadPublicKey(role domain.Role) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.pubPath(role))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("public key for %s: %w", role, os.ErrNotExist)
	}
	pub, err := crypto.ParsePublicPEM(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s public key: %w", role, err)
	}
	return pub, nil
}

func (s *IdentityFileStore) load(role domain.Role) (domain.Identity, error) {
	raw, err := os.ReadFile(s.privPath(role))
	if err != nil {
		return domain.Identity{}, err
	}
	plain, err := openPrivatePEM(s.passphrase, role.String(), raw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("open %s private key: %w", role, err)
	}
	priv, err := crypto.ParsePrivatePEM(plain)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse %s private key: %w", role, err)
	}

	pubRaw, err := os.ReadFile(s.pubPath(role))
	if err != nil {
		return domain.Identity{}, err
	}
	pub, err := crypto.ParsePublicPEM(pubRaw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse %s public key: %w", role, err)
	}
	if !pub.Equal(&priv.PublicKey) {
		return domain.Identity{}, fmt.Errorf("%s key files do not belong together", role)
	}
	return domain.Identity{Role: role, Private: priv, Public: pub}, nil
}

func (s *IdentityFileStore) create(role domain.Role) (domain.Identity, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return domain.Identity{}, err
	}
	priv, err := crypto.GenerateRSA()
	if err != nil {
		return domain.Identity{}, err
	}

	privPEM := crypto.MarshalPrivatePEM(priv)
	if s.passphrase != "" {
		if privPEM, err = sealPrivatePEM(s.passphrase, role.String(), privPEM); err != nil {
			return domain.Identity{}, err
		}
	}
	pubPEM, err := crypto.MarshalPublicPEM(&priv.PublicKey)
	if err != nil {
		return domain.Identity{}, err
	}

	if err := writeFile(s.privPath(role), privPEM, 0o600); err != nil {
		return domain.Identity{}, err
	}
	if err := writeFile(s.pubPath(role), pubPEM, 0o644); err != nil {
		return domain.Identity{}, err
	}
	s.log.WithFields(logrus.Fields{
		"role":    role,
		"private": s.privPath(role),
		"public":  s.pubPath(role),
		"sealed":  s.passphrase != "",
	}).Info("generated RSA identity")

	return domain.Identity{Role: role, Private: priv, Public: &priv.PublicKey}, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
