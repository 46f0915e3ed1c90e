package upload

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/envelope"
	"cipherxfer/internal/protocol/retry"
	"cipherxfer/internal/util/memzero"
	"cipherxfer/internal/wire"
)

// Server is the receiving half of an upload.
type Server struct {
	keys    domain.Keyring
	blobs   domain.BlobStore
	policy  retry.Policy
	metrics *metrics.Metrics
}

// NewServer returns an upload server that unwraps with keys.Self, verifies
// against keys.Peer and persists into blobs. policy supplies the per-attempt
// timeout and the fallback retry budget.
func NewServer(keys domain.Keyring, blobs domain.BlobStore, policy retry.Policy, m *metrics.Metrics) *Server {
	return &Server{keys: keys, blobs: blobs, policy: policy, metrics: m}
}

// Handle runs the server side after a KEY message has been read.
func (s *Server) Handle(conn retry.Exchanger, key domain.Message, log logrus.FieldLogger) error {
	log = log.WithField("flow", metrics.FlowUpload)

	sk, err := envelope.UnwrapSessionKey(s.keys.Self.Private, key.EncSessionKey)
	if err != nil {
		log.WithError(err).Warn("session key rejected")
		s.metrics.Rejection(metrics.FlowUpload, envelope.CauseDecryption.String())
		s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeRejected)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageNack})
		return fmt.Errorf("%w: %w", domain.ErrKeyRejected, err)
	}
	defer memzero.Zero(sk)

	if err := conn.SendJSON(domain.Message{Type: domain.MessageKeyOK}); err != nil {
		return fmt.Errorf("send KEY-OK: %w", err)
	}

	p := s.policy.WithDeclared(key.Retry)
	deadline := time.Now().Add(p.ServerWait())
	log.WithFields(logrus.Fields{"attempts": p.Attempts, "wait": p.ServerWait()}).Debug("awaiting DATA")

	var committed string
	for received := 0; received < p.Attempts; {
		msg, err := receiveBy(conn, deadline)
		switch {
		case err == nil:
		case committed != "":
			// The client stopped retrying after our ACK.
			return nil
		case errors.Is(err, wire.ErrMalformed):
			received++
			log.WithError(err).Warn("unreadable DATA")
			s.metrics.Rejection(metrics.FlowUpload, envelope.CauseMalformed.String())
			_ = conn.SendJSON(domain.Message{Type: domain.MessageNack})
			continue
		default:
			log.WithError(err).Warn("no DATA received")
			s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
			return fmt.Errorf("%w: await DATA: %w", domain.ErrTransferFailed, err)
		}

		if msg.Type != domain.MessageData {
			if committed != "" {
				return nil
			}
			s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
			return fmt.Errorf("%w: expected DATA, got %q", domain.ErrTransferFailed, msg.Type)
		}
		received++

		if committed != "" && msg.Hash == committed {
			log.Info("redelivery acknowledged")
			_ = conn.SendJSON(domain.Message{Type: domain.MessageAck})
			continue
		}

		meta, plain, out := envelope.OpenWithKey(msg.Envelope(), s.keys.Peer, sk)
		if !out.OK() {
			log.WithField("cause", out.Cause).WithError(out.Err).Warn("DATA rejected")
			s.metrics.Rejection(metrics.FlowUpload, out.Cause.String())
			_ = conn.SendJSON(out.Reply())
			continue
		}

		flog := log.WithField("file", meta.Name)
		if err := s.blobs.Put(meta.Name, plain); err != nil {
			_ = conn.SendJSON(domain.Message{Type: domain.MessageNack})
			if errors.Is(err, domain.ErrInvalidName) {
				flog.WithError(err).Warn("DATA rejected")
				s.metrics.Rejection(metrics.FlowUpload, "invalid_name")
				continue
			}
			flog.WithError(err).Error("store upload")
			s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeFailed)
			return fmt.Errorf("store %q: %w", meta.Name, err)
		}
		committed = msg.Hash
		flog.WithField("size", len(plain)).Info("upload stored")
		s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeOK)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageAck})
	}

	if committed == "" {
		s.metrics.Transfer(metrics.FlowUpload, metrics.OutcomeRejected)
		return fmt.Errorf("%w: %d DATA attempts rejected", domain.ErrTransferFailed, p.Attempts)
	}
	return nil
}

func receiveBy(conn retry.Exchanger, deadline time.Time) (domain.Message, error) {
	d := time.Until(deadline)
	if d <= 0 {
		return domain.Message{}, wire.ErrTimeout
	}
	return conn.ReceiveJSONWithin(d)
}
