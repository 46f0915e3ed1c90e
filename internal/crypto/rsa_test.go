package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"cipherxfer/internal/crypto"
)

func TestGenerateRSA_KeySize(t *testing.T) {
	a, _ := testKeys(t)
	if got := a.N.BitLen(); got != crypto.KeyBits {
		t.Fatalf("modulus bits = %d, want %d", got, crypto.KeyBits)
	}
}

func TestEncryptDecryptRSA_RoundTrip(t *testing.T) {
	a, _ := testKeys(t)
	sk, err := crypto.NewSessionKey()
	if err != nil {
		t.Fatalf("NewSessionKey: %v", err)
	}
	ct, err := crypto.EncryptRSA(&a.PublicKey, sk.Key[:])
	if err != nil {
		t.Fatalf("EncryptRSA: %v", err)
	}
	pt, err := crypto.DecryptRSA(a, ct)
	if err != nil {
		t.Fatalf("DecryptRSA: %v", err)
	}
	if !bytes.Equal(pt, sk.Key[:]) {
		t.Fatal("session key changed in transit")
	}
}

func TestDecryptRSA_WrongKey(t *testing.T) {
	a, b := testKeys(t)
	ct, err := crypto.EncryptRSA(&a.PublicKey, []byte("secret"))
	if err != nil {
		t.Fatalf("EncryptRSA: %v", err)
	}
	if _, err := crypto.DecryptRSA(b, ct); !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("want ErrDecryption, got %v", err)
	}
}

func TestDecryptRSA_Malformed(t *testing.T) {
	a, _ := testKeys(t)
	if _, err := crypto.DecryptRSA(a, []byte("not a ciphertext")); !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("want ErrDecryption, got %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	a, b := testKeys(t)
	rapid.Check(t, func(rt *rapid.T) {
		msg := rapid.SliceOf(rapid.Byte()).Draw(rt, "msg")
		sig, err := crypto.Sign(a, msg)
		if err != nil {
			rt.Fatalf("Sign: %v", err)
		}
		if !crypto.Verify(&a.PublicKey, sig, msg) {
			rt.Fatal("own signature rejected")
		}
		if crypto.Verify(&b.PublicKey, sig, msg) {
			rt.Fatal("signature accepted under a different identity")
		}
	})
}

func TestVerify_CorruptionIsFalse(t *testing.T) {
	a, _ := testKeys(t)
	msg := []byte("a.txt")
	sig, err := crypto.Sign(a, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	bad := append([]byte(nil), sig...)
	bad[0] ^= 0x01
	if crypto.Verify(&a.PublicKey, bad, msg) {
		t.Fatal("corrupted signature accepted")
	}
	if crypto.Verify(&a.PublicKey, sig, []byte("b.txt")) {
		t.Fatal("signature accepted for another message")
	}
	if crypto.Verify(&a.PublicKey, nil, msg) {
		t.Fatal("empty signature accepted")
	}
	if crypto.Verify(nil, sig, msg) {
		t.Fatal("nil key accepted")
	}
}

func TestPEM_RoundTrip(t *testing.T) {
	a, _ := testKeys(t)

	priv, err := crypto.ParsePrivatePEM(crypto.MarshalPrivatePEM(a))
	if err != nil {
		t.Fatalf("ParsePrivatePEM: %v", err)
	}
	if !priv.Equal(a) {
		t.Fatal("private key changed")
	}

	pubPEM, err := crypto.MarshalPublicPEM(&a.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicPEM: %v", err)
	}
	pub, err := crypto.ParsePublicPEM(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicPEM: %v", err)
	}
	if !pub.Equal(&a.PublicKey) {
		t.Fatal("public key changed")
	}

	if _, err := crypto.ParsePrivatePEM(pubPEM); err == nil {
		t.Fatal("public PEM accepted as private key")
	}
	if _, err := crypto.ParsePublicPEM([]byte("garbage")); err == nil {
		t.Fatal("garbage accepted as PEM")
	}
}

func TestFingerprint(t *testing.T) {
	a, b := testKeys(t)
	fa, err := crypto.Fingerprint(&a.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fb, err := crypto.Fingerprint(&b.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if len(fa) != 20 {
		t.Fatalf("fingerprint length = %d, want 20", len(fa))
	}
	if fa == fb {
		t.Fatal("distinct keys share a fingerprint")
	}
}
