// Package wire implements the cipherxfer framing layer.
//
// Every message on a connection is a 4-byte big-endian length followed by
// that many payload bytes. Protocol objects are JSON-encoded domain.Message
// values carried one per frame; the handshake tokens travel as raw frames.
//
// A Conn can simulate network loss: an outgoing frame is silently discarded
// with a configured probability and the sender believes it was written. The
// handshake tokens are never dropped.
package wire
