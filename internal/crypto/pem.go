package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	pemPrivateType = "RSA PRIVATE KEY"
	pemPublicType  = "PUBLIC KEY"
)

var errNoPEM = errors.New("no PEM block found")

// MarshalPrivatePEM encodes priv as an unencrypted PKCS#1 PEM block.
func MarshalPrivatePEM(priv *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemPrivateType,
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

// ParsePrivatePEM decodes a block written by MarshalPrivatePEM.
func ParsePrivatePEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}
	if block.Type != pemPrivateType {
		return nil, fmt.Errorf("unexpected PEM type %q", block.Type)
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// MarshalPublicPEM encodes pub as a SubjectPublicKeyInfo PEM block.
func MarshalPublicPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicType, Bytes: der}), nil
}

// ParsePublicPEM decodes a block written by MarshalPublicPEM.
func ParsePublicPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEM
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, want RSA", key)
	}
	return pub, nil
}
