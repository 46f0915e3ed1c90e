package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
	"cipherxfer/internal/wire"
)

const (
	DefaultAttempts = 3
	DefaultTimeout  = 5 * time.Second

	// MaxAttempts bounds a peer-declared retry budget.
	MaxAttempts = 10
)

// Policy is a fixed retry budget over a fixed per-attempt wait.
type Policy struct {
	Attempts int
	Timeout  time.Duration
}

// DefaultPolicy returns 3 attempts of 5 seconds each.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Timeout: DefaultTimeout}
}

// ServerWait is how long a receiver waits for the first message of a
// sender using this policy: one timeout per attempt plus one of slack.
func (p Policy) ServerWait() time.Duration {
	return p.Timeout * time.Duration(p.Attempts+1)
}

// WithDeclared returns p with Attempts replaced by a peer-declared budget.
// Out-of-range values keep p's own budget.
func (p Policy) WithDeclared(n int) Policy {
	if n >= 1 && n <= MaxAttempts {
		p.Attempts = n
	}
	return p
}

// Exchanger is the JSON half of wire.Conn.
type Exchanger interface {
	SendJSON(m domain.Message) error
	ReceiveJSONWithin(d time.Duration) (domain.Message, error)
}

// Deliver sends msg until it is acknowledged. It returns the number of
// attempts used. Exhaustion wraps domain.ErrTransferFailed together with the
// last reason (wire.ErrTimeout or domain.ErrRejected).
func Deliver(ctx context.Context, x Exchanger, msg domain.Message, p Policy, log logrus.FieldLogger) (int, error) {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	var last error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
		entry := log.WithFields(logrus.Fields{"attempt": attempt, "of": p.Attempts, "type": msg.Type})
		entry.Info("sending")

		if err := x.SendJSON(msg); err != nil {
			return attempt, fmt.Errorf("%w: send: %w", domain.ErrTransferFailed, err)
		}

		reply, err := x.ReceiveJSONWithin(p.Timeout)
		switch {
		case err == nil && reply.Type == domain.MessageAck:
			entry.Info("acknowledged")
			return attempt, nil
		case err == nil:
			entry.WithField("reply", reply.Type).Warn("not acknowledged, will retry")
			last = domain.ErrRejected
		case errors.Is(err, wire.ErrTimeout):
			entry.Warn("no reply before timeout")
			last = wire.ErrTimeout
		case errors.Is(err, wire.ErrMalformed):
			entry.WithError(err).Warn("unreadable reply, will retry")
			last = domain.ErrRejected
		default:
			return attempt, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
	}
	return p.Attempts, fmt.Errorf("%w after %d attempts: %w", domain.ErrTransferFailed, p.Attempts, last)
}
