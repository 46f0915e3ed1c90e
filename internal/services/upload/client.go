package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/envelope"
	"cipherxfer/internal/protocol/retry"
)

// Client is the sending half of an upload.
type Client struct {
	keys    domain.Keyring
	policy  retry.Policy
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewClient returns an upload client signing as keys.Self and encrypting
// for keys.Peer.
func NewClient(keys domain.Keyring, policy retry.Policy, m *metrics.Metrics, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{keys: keys, policy: policy, metrics: m, log: log, now: time.Now}
}

// Send uploads data under name over a connection that has completed the
// handshake. It returns the number of DATA attempts used.
func (c *Client) Send(ctx context.Context, conn retry.Exchanger, name string, data []byte) (int, error) {
	log := c.log.WithFields(logrus.Fields{"flow": metrics.FlowUpload, "file": name})

	env, meta, err := envelope.Seal(c.keys.Self.Private, c.keys.Peer, name, data, c.now())
	if err != nil {
		c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
		return 0, fmt.Errorf("seal %q: %w", name, err)
	}

	key := domain.Message{
		Type:          domain.MessageKey,
		EncSessionKey: env.EncryptedSessionKey,
		Retry:         c.policy.Attempts,
	}
	if err := conn.SendJSON(key); err != nil {
		c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
		return 0, fmt.Errorf("%w: send KEY: %w", domain.ErrTransferFailed, err)
	}
	reply, err := conn.ReceiveJSONWithin(c.policy.Timeout)
	if err != nil {
		c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
		return 0, fmt.Errorf("%w: await KEY-OK: %w", domain.ErrTransferFailed, err)
	}
	if reply.Type != domain.MessageKeyOK {
		log.WithField("reply", reply.Type).Warn("server rejected session key")
		c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeRejected)
		return 0, fmt.Errorf("%w: %w", domain.ErrTransferFailed, domain.ErrKeyRejected)
	}

	attempts, err := retry.Deliver(ctx, conn, domain.DataMessage(env, false), c.policy, log)
	c.metrics.UploadAttempts(attempts)
	if err != nil {
		log.WithError(err).Error("upload failed")
		c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
		return attempts, err
	}
	log.WithFields(logrus.Fields{"size": meta.Size, "attempts": attempts}).Info("upload acknowledged")
	c.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeOK)
	return attempts, nil
}
