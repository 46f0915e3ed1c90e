package handshake

import (
	"errors"
	"fmt"

	"cipherxfer/internal/domain"
)

// ErrFailed is fatal for the connection it occurred on.
var ErrFailed = errors.New("handshake failed")

// Transport is the raw-frame half of wire.Conn.
type Transport interface {
	SendMessage(payload []byte) error
	ReceiveMessageLimited(limit int) ([]byte, error)
}

// tokenLimit bounds the frames read before the peer is known.
const tokenLimit = 64

// Initiate runs the client side of the handshake.
func Initiate(t Transport) error {
	if err := t.SendMessage([]byte(domain.HelloToken)); err != nil {
		return fmt.Errorf("%w: send hello: %w", ErrFailed, err)
	}
	got, err := t.ReceiveMessageLimited(tokenLimit)
	if err != nil {
		return fmt.Errorf("%w: await ready: %w", ErrFailed, err)
	}
	if string(got) != domain.ReadyToken {
		return fmt.Errorf("%w: unexpected reply (%d bytes)", ErrFailed, len(got))
	}
	return nil
}

// Respond runs the server side of the handshake.
func Respond(t Transport) error {
	got, err := t.ReceiveMessageLimited(tokenLimit)
	if err != nil {
		return fmt.Errorf("%w: await hello: %w", ErrFailed, err)
	}
	if string(got) != domain.HelloToken {
		return fmt.Errorf("%w: unexpected greeting (%d bytes)", ErrFailed, len(got))
	}
	if err := t.SendMessage([]byte(domain.ReadyToken)); err != nil {
		return fmt.Errorf("%w: send ready: %w", ErrFailed, err)
	}
	return nil
}
