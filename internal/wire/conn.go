package wire

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
)

// Conn wraps one stream connection with framing, deadlines and simulated
// loss. A Conn is used by one goroutine at a time.
type Conn struct {
	nc       net.Conn
	timeout  time.Duration
	maxFrame int
	loss     LossPolicy
	onDrop   func(domain.MessageType)
	log      logrus.FieldLogger
}

// Option configures a Conn.
type Option func(*Conn)

// WithTimeout sets the default deadline applied to every read and write.
// Zero disables deadlines.
func WithTimeout(d time.Duration) Option { return func(c *Conn) { c.timeout = d } }

// WithMaxFrame bounds the payload of a single frame.
func WithMaxFrame(n int) Option { return func(c *Conn) { c.maxFrame = n } }

// WithLoss enables simulated loss on outgoing frames.
func WithLoss(p LossPolicy) Option { return func(c *Conn) { c.loss = p } }

// WithDropHook is called for every simulated drop.
func WithDropHook(fn func(domain.MessageType)) Option { return func(c *Conn) { c.onDrop = fn } }

// WithLogger sets the logger used for frame-level events.
func WithLogger(l logrus.FieldLogger) Option { return func(c *Conn) { c.log = l } }

// NewConn wraps nc. The caller keeps ownership until Close.
func NewConn(nc net.Conn, opts ...Option) *Conn {
	c := &Conn{nc: nc, maxFrame: DefaultMaxFrame, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Timeout reports the default per-operation deadline.
func (c *Conn) Timeout() time.Duration { return c.timeout }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// SendMessage writes one raw frame. Unless payload is a handshake token it
// may be dropped by the loss policy, in which case nil is returned.
func (c *Conn) SendMessage(payload []byte) error {
	if !isHandshakeToken(payload) && c.loss.Drop("") {
		c.dropped("")
		return nil
	}
	return c.write(payload)
}

// ReceiveMessage reads one raw frame within the default timeout.
func (c *Conn) ReceiveMessage() ([]byte, error) {
	return c.ReceiveMessageWithin(c.timeout)
}

// ReceiveMessageWithin reads one raw frame within d; zero waits forever.
func (c *Conn) ReceiveMessageWithin(d time.Duration) ([]byte, error) {
	return c.read(d, c.maxFrame)
}

// ReceiveMessageLimited reads one raw frame within the default timeout,
// rejecting any frame longer than limit with ErrFrameTooLarge.
func (c *Conn) ReceiveMessageLimited(limit int) ([]byte, error) {
	if limit <= 0 || limit > c.maxFrame {
		limit = c.maxFrame
	}
	return c.read(c.timeout, limit)
}

func (c *Conn) read(d time.Duration, limit int) ([]byte, error) {
	if d > 0 {
		if err := c.nc.SetReadDeadline(time.Now().Add(d)); err != nil {
			return nil, classify("set read deadline", err, false)
		}
	} else {
		_ = c.nc.SetReadDeadline(time.Time{})
	}
	return ReadFrame(c.nc, limit)
}

// SendJSON encodes m as one frame, subject to the loss policy.
func (c *Conn) SendJSON(m domain.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Type, err)
	}
	if c.loss.Drop(m.Type) {
		c.dropped(m.Type)
		return nil
	}
	return c.write(payload)
}

// ReceiveJSON reads and decodes one message within the default timeout.
func (c *Conn) ReceiveJSON() (domain.Message, error) {
	return c.ReceiveJSONWithin(c.timeout)
}

// ReceiveJSONWithin reads and decodes one message within d. An empty
// payload decodes to an empty Message.
func (c *Conn) ReceiveJSONWithin(d time.Duration) (domain.Message, error) {
	payload, err := c.ReceiveMessageWithin(d)
	if err != nil {
		return domain.Message{}, err
	}
	return DecodeMessage(payload)
}

// DecodeMessage decodes one JSON object payload.
func DecodeMessage(payload []byte) (domain.Message, error) {
	var m domain.Message
	if len(payload) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(payload, &m); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func (c *Conn) write(payload []byte) error {
	if c.timeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return classify("set write deadline", err, false)
		}
	}
	return WriteFrame(c.nc, payload, c.maxFrame)
}

func (c *Conn) dropped(kind domain.MessageType) {
	c.log.WithField("type", kind).Debug("simulated loss: frame not sent")
	if c.onDrop != nil {
		c.onDrop(kind)
	}
}
