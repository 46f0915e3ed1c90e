// Package download implements both halves of the download flow.
//
// The client signs the requested name and waits once for the reply; a
// rejection is terminal. The server gates on the request signature (NACK
// "auth") and on the name existing in storage (NACK "not_found"), then
// returns the file sealed under fresh key material. The client verifies the
// content hash and the metadata signature, decrypts, persists and ACKs. The
// server waits briefly for that ACK but never fails the transfer without it.
package download
