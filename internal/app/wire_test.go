package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identitysvc "cipherxfer/internal/services/identity"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	cfg := Default()
	cfg.KeysDir = filepath.Join(dir, "keys")
	cfg.StorageDir = filepath.Join(dir, "storage")
	cfg.DownloadDir = filepath.Join(dir, "downloads")
	cfg.Timeout = time.Second
	cfg.LossRate = 0
	return cfg
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWire_BuildsBothSides(t *testing.T) {
	for _, backend := range []string{BackendDir, BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StorageBackend = backend
			w := NewWire(cfg, quietLogger())
			defer w.Close()
			_, err := w.Identity.Provision()
			require.NoError(t, err)

			srv, err := w.Server()
			require.NoError(t, err)
			assert.NotNil(t, srv)

			cl, err := w.Client()
			require.NoError(t, err)
			assert.NotNil(t, cl)

			assert.DirExists(t, cfg.DownloadDir)
			assert.FileExists(t, filepath.Join(cfg.KeysDir, "client_priv.pem"))
			assert.FileExists(t, filepath.Join(cfg.KeysDir, "server_pub.pem"))
		})
	}
}

func TestWire_RequiresPeerPublicKey(t *testing.T) {
	cfg := testConfig(t)
	w := NewWire(cfg, quietLogger())
	defer w.Close()

	_, err := w.Client()
	assert.ErrorIs(t, err, identitysvc.ErrPeerKeyMissing)
	assert.NoFileExists(t, filepath.Join(cfg.KeysDir, "server_priv.pem"))
}

func TestWire_ServerStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 0
	cfg.GeneratePeerKey = true
	w := NewWire(cfg, quietLogger())
	defer w.Close()

	srv, err := w.Server()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
