package download

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/envelope"
	"cipherxfer/internal/protocol/retry"
)

// Client is the requesting half of a download.
type Client struct {
	keys    domain.Keyring
	blobs   domain.BlobStore
	policy  retry.Policy
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewClient returns a download client that persists received files into
// blobs. Only policy.Timeout is used; downloads are never retried.
func NewClient(keys domain.Keyring, blobs domain.BlobStore, policy retry.Policy, m *metrics.Metrics, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{keys: keys, blobs: blobs, policy: policy, metrics: m, log: log}
}

// Fetch requests name over a connection that has completed the handshake
// and stores the verified plaintext under the same name. Nothing is stored
// on failure.
func (c *Client) Fetch(ctx context.Context, conn retry.Exchanger, name string) ([]byte, error) {
	log := c.log.WithFields(logrus.Fields{"flow": metrics.FlowDownload, "file": name})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(c.keys.Self.Private, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	if err := conn.SendJSON(domain.Message{Type: domain.MessageDownload, File: name, Sig: sig}); err != nil {
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: send DOWNLOAD: %w", domain.ErrTransferFailed, err)
	}

	reply, err := conn.ReceiveJSONWithin(c.policy.Timeout)
	if err != nil {
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: await DATA: %w", domain.ErrTransferFailed, err)
	}
	switch reply.Type {
	case domain.MessageData:
	case domain.MessageNack:
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeRejected)
		log.WithField("err", reply.Err).Warn("download rejected")
		return nil, rejection(reply.Err)
	default:
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: unexpected reply %q", domain.ErrTransferFailed, reply.Type)
	}

	meta, plain, out := envelope.Open(reply.Envelope(), c.keys.Peer, c.keys.Self.Private)
	if !out.OK() {
		log.WithField("cause", out.Cause).WithError(out.Err).Warn("download failed verification")
		c.metrics.Rejection(metrics.FlowDownload, out.Cause.String())
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, out.Err)
	}
	if meta.Name != name {
		c.metrics.Rejection(metrics.FlowDownload, "name_mismatch")
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("%w: %w: server sent %q", domain.ErrTransferFailed, domain.ErrAuthentication, meta.Name)
	}

	if err := c.blobs.Put(name, plain); err != nil {
		c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return nil, fmt.Errorf("store %q: %w", name, err)
	}
	if err := conn.SendJSON(domain.Message{Type: domain.MessageAck}); err != nil {
		log.WithError(err).Debug("ACK not delivered")
	}
	log.WithField("size", len(plain)).Info("download stored")
	c.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeOK)
	return plain, nil
}

func rejection(reason domain.NackReason) error {
	switch reason {
	case domain.NackAuth:
		return fmt.Errorf("%w: %w", domain.ErrRejected, domain.ErrAuthentication)
	case domain.NackNotFound:
		return fmt.Errorf("%w: %w", domain.ErrRejected, domain.ErrNotFound)
	default:
		return domain.ErrRejected
	}
}
