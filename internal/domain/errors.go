package domain

import "errors"

var (
	// ErrTransferFailed is terminal for a flow; it is never retried above the
	// retry controller.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrRejected means the peer answered with a generic NACK.
	ErrRejected = errors.New("rejected by peer")
	// ErrKeyRejected means a KEY message was not answered with KEY-OK.
	ErrKeyRejected = errors.New("session key rejected")
	// ErrIntegrity means the content hash did not match IV||ciphertext.
	ErrIntegrity = errors.New("content hash mismatch")
	// ErrAuthentication means a signature failed to verify.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotFound means the named file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName means a name is not a single clean path element.
	ErrInvalidName = errors.New("invalid file name")
)
