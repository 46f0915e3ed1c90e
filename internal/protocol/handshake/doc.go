// Package handshake implements the two-message liveness check that opens
// every cipherxfer connection.
//
// # Flow
//
//  1. The initiator sends the raw frame "Hello!".
//  2. The responder, on receiving exactly that frame, replies "Ready!".
//  3. The initiator must receive exactly "Ready!" before any protocol message.
//
// # Errors
//
// Any other bytes, a timeout or a closed connection yields ErrFailed. There
// is no retry at this layer; the caller abandons the connection. A responder
// never replies to an imposter.
package handshake
