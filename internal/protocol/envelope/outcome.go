package envelope

import (
	"cipherxfer/internal/domain"
)

// Cause records which gate rejected an envelope.
type Cause int

const (
	CauseNone Cause = iota
	CauseIntegrity
	CauseSignature
	CauseMalformed
	CauseDecryption
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseIntegrity:
		return "integrity"
	case CauseSignature:
		return "signature"
	case CauseMalformed:
		return "malformed"
	case CauseDecryption:
		return "decryption"
	default:
		return "unknown"
	}
}

// VerificationOutcome is the result of checking one envelope. Err carries
// the local detail and must not be sent to the peer.
type VerificationOutcome struct {
	Cause Cause
	Err   error
}

// OK reports whether every gate passed.
func (o VerificationOutcome) OK() bool { return o.Cause == CauseNone }

// Reply is the only thing a peer learns: ACK on success, a bare NACK
// otherwise, whatever the cause.
func (o VerificationOutcome) Reply() domain.Message {
	if o.OK() {
		return domain.Message{Type: domain.MessageAck}
	}
	return domain.Message{Type: domain.MessageNack}
}

func reject(c Cause, err error) VerificationOutcome {
	return VerificationOutcome{Cause: c, Err: err}
}
