// Package crypto exposes the minimal primitives used by cipherxfer.
//
// Contents
//
//   - RSA-2048 identity keys: generation, PEM encoding, OAEP wrapping of
//     session keys (EncryptRSA, DecryptRSA) and PKCS#1 v1.5 SHA-512
//     signatures (Sign, Verify)
//   - AES-256-CBC bulk encryption with PKCS#7 padding (EncryptCBC, DecryptCBC)
//   - SHA-512 content digests (Hash, ContentHash)
//   - Per-transfer session keys (NewSessionKey)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// ContentHash is tamper evidence for IV||ciphertext only. It is not a MAC: an
// attacker who can rewrite the ciphertext can rewrite the digest too. The
// metadata signature is what binds the transfer to the sender.
package crypto
