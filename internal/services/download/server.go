package download

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/envelope"
	"cipherxfer/internal/protocol/retry"
)

// Server is the serving half of a download.
type Server struct {
	keys    domain.Keyring
	blobs   domain.BlobStore
	policy  retry.Policy
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewServer returns a download server reading from blobs. policy.Timeout
// bounds the wait for the client's closing ACK.
func NewServer(keys domain.Keyring, blobs domain.BlobStore, policy retry.Policy, m *metrics.Metrics) *Server {
	return &Server{keys: keys, blobs: blobs, policy: policy, metrics: m, now: time.Now}
}

// Handle answers one DOWNLOAD request.
func (s *Server) Handle(conn retry.Exchanger, req domain.Message, log logrus.FieldLogger) error {
	log = log.WithFields(logrus.Fields{"flow": metrics.FlowDownload, "file": req.File})

	if !crypto.Verify(s.keys.Peer, req.Sig, []byte(req.File)) {
		log.Warn("request signature rejected")
		s.metrics.Rejection(metrics.FlowDownload, envelope.CauseSignature.String())
		s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeRejected)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageNack, Err: domain.NackAuth})
		return domain.ErrAuthentication
	}

	data, err := s.blobs.Get(req.File)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidName):
		log.Warn("requested file not found")
		s.metrics.Rejection(metrics.FlowDownload, "not_found")
		s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeRejected)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageNack, Err: domain.NackNotFound})
		return domain.ErrNotFound
	case err != nil:
		log.WithError(err).Error("read stored file")
		s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageNack})
		return fmt.Errorf("read %q: %w", req.File, err)
	}

	env, _, err := envelope.Seal(s.keys.Self.Private, s.keys.Peer, req.File, data, s.now())
	if err != nil {
		s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		_ = conn.SendJSON(domain.Message{Type: domain.MessageNack})
		return fmt.Errorf("seal %q: %w", req.File, err)
	}
	if err := conn.SendJSON(domain.DataMessage(env, true)); err != nil {
		s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeFailed)
		return fmt.Errorf("send DATA: %w", err)
	}

	// Best effort: the ACK is only observed, never required.
	ack, err := conn.ReceiveJSONWithin(s.policy.Timeout)
	switch {
	case err != nil:
		log.WithError(err).Warn("client did not acknowledge")
	case ack.Type != domain.MessageAck:
		log.WithField("reply", ack.Type).Warn("client did not acknowledge")
	default:
		log.WithField("size", len(data)).Info("download acknowledged")
	}
	s.metrics.Transfer(metrics.FlowDownload, metrics.OutcomeOK)
	return nil
}
