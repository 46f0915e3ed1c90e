package client

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/handshake"
	"cipherxfer/internal/protocol/retry"
	"cipherxfer/internal/services/download"
	"cipherxfer/internal/services/upload"
	"cipherxfer/internal/wire"
)

// Config holds the connection settings of a Client.
type Config struct {
	Addr     string
	Policy   retry.Policy
	Loss     wire.LossPolicy
	MaxFrame int
}

// Client uploads and downloads files for the client role.
type Client struct {
	cfg        Config
	uploader   *upload.Client
	downloader *download.Client
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	dialer     net.Dialer
}

// New returns a client using keys (self = client identity, peer = server
// public key). Downloaded files are written to downloads.
func New(cfg Config, keys domain.Keyring, downloads domain.BlobStore, m *metrics.Metrics, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		cfg:        cfg,
		uploader:   upload.NewClient(keys, cfg.Policy, m, log),
		downloader: download.NewClient(keys, downloads, cfg.Policy, m, log),
		metrics:    m,
		log:        log,
		dialer:     net.Dialer{Timeout: cfg.Policy.Timeout},
	}
}

// Upload sends the file at path, stored remotely under its base name.
func (c *Client) Upload(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	conn, done, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	_, err = c.uploader.Send(ctx, conn, filepath.Base(path), data)
	return err
}

// Download fetches name and returns the number of bytes stored locally.
func (c *Client) Download(ctx context.Context, name string) (int, error) {
	conn, done, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer done()

	data, err := c.downloader.Fetch(ctx, conn, name)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// connect dials and completes the handshake. The returned func closes the
// connection and must always be called.
func (c *Client) connect(ctx context.Context) (*wire.Conn, func(), error) {
	nc, err := c.dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", c.cfg.Addr, err)
	}
	conn := wire.NewConn(nc,
		wire.WithTimeout(c.cfg.Policy.Timeout),
		wire.WithMaxFrame(c.cfg.MaxFrame),
		wire.WithLoss(c.cfg.Loss),
		wire.WithDropHook(c.metrics.FrameDropped),
		wire.WithLogger(c.log),
	)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	done := func() {
		stop()
		_ = conn.Close()
	}

	start := time.Now()
	err = handshake.Initiate(conn)
	c.metrics.Handshake(time.Since(start), err)
	if err != nil {
		done()
		return nil, nil, err
	}
	c.log.WithField("server", c.cfg.Addr).Debug("handshake complete")
	return conn, done, nil
}

// Compile-time assertion that Client implements domain.TransferClient.
var _ domain.TransferClient = (*Client)(nil)
