package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/handshake"
	"cipherxfer/internal/protocol/retry"
	"cipherxfer/internal/services/download"
	"cipherxfer/internal/services/upload"
	"cipherxfer/internal/wire"
)

// Config holds the listener and per-connection settings.
type Config struct {
	Addr     string
	Policy   retry.Policy
	Loss     wire.LossPolicy
	MaxFrame int
}

// Server is the xferd connection loop.
type Server struct {
	cfg       Config
	uploads   *upload.Server
	downloads *download.Server
	metrics   *metrics.Metrics
	log       logrus.FieldLogger

	wg sync.WaitGroup
}

// New returns a server using keys (self = server identity, peer = client
// public key) and storing uploads in blobs.
func New(cfg Config, keys domain.Keyring, blobs domain.BlobStore, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:       cfg,
		uploads:   upload.NewServer(keys, blobs, cfg.Policy, m),
		downloads: download.NewServer(keys, blobs, cfg.Policy, m),
		metrics:   m,
		log:       log,
	}
}

// ListenAndServe listens on cfg.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then waits for
// in-flight handlers. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	s.log.WithField("addr", ln.Addr().String()).Info("listening")
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("shutting down, waiting for open connections")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			// Anything else (EMFILE, ENFILE, ECONNABORTED) may clear up.
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.log.WithError(err).WithField("backoff", backoff).Warn("accept failed, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go s.handle(nc)
	}
}

func (s *Server) handle(nc net.Conn) {
	defer s.wg.Done()
	defer nc.Close()

	log := s.log.WithFields(logrus.Fields{
		"conn":   uuid.NewString(),
		"remote": nc.RemoteAddr().String(),
	})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("connection handler panicked")
		}
	}()

	conn := wire.NewConn(nc,
		wire.WithTimeout(s.cfg.Policy.Timeout),
		wire.WithMaxFrame(s.cfg.MaxFrame),
		wire.WithLoss(s.cfg.Loss),
		wire.WithDropHook(s.metrics.FrameDropped),
		wire.WithLogger(log),
	)

	start := time.Now()
	err := handshake.Respond(conn)
	s.metrics.Handshake(time.Since(start), err)
	if err != nil {
		log.WithError(err).Warn("handshake failed")
		return
	}

	first, err := conn.ReceiveJSON()
	if err != nil {
		log.WithError(err).Warn("no request after handshake")
		return
	}
	switch first.Type {
	case domain.MessageKey:
		err = s.uploads.Handle(conn, first, log)
	case domain.MessageDownload:
		err = s.downloads.Handle(conn, first, log)
	case "":
		log.Debug("peer closed without a request")
		return
	default:
		log.WithField("type", first.Type).Warn("unexpected first message")
		return
	}
	if err != nil {
		log.WithError(err).Debug("flow ended with error")
		return
	}
	log.Debug("connection finished")
}
