// Package envelope builds and checks the hybrid-encrypted unit of one file
// transfer.
//
// # Sealing
//
// Seal draws a fresh session key and IV, encrypts the file with AES-256-CBC,
// hashes IV||ciphertext with SHA-512, signs the canonical metadata bytes with
// the sender's identity and wraps the session key under the recipient's
// public key.
//
// # Opening
//
// The receiver evaluates independent gates in a fixed order and stops at the
// first failure:
//  1. content hash (CauseIntegrity)
//  2. metadata signature (CauseSignature)
//  3. metadata decoding (CauseMalformed)
//  4. session key unwrap and decryption (CauseDecryption)
//
// The cause is kept for local logs and metrics. Peers only ever see the
// uniform reply of VerificationOutcome.Reply.
package envelope
