package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"cipherxfer/internal/client"
	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/server"
	identitysvc "cipherxfer/internal/services/identity"
	"cipherxfer/internal/store"
)

// Wire bundles the stores and services shared by the front ends.
type Wire struct {
	Config   Config
	Log      *logrus.Logger
	Metrics  *metrics.Metrics
	Identity *identitysvc.Service

	closers []io.Closer
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log *logrus.Logger) *Wire {
	ids := store.NewIdentityFileStore(cfg.KeysDir, cfg.Passphrase, log)
	return &Wire{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics.New(),
		Identity: identitysvc.New(ids, log, identitysvc.WithPeerGeneration(cfg.GeneratePeerKey)),
	}
}

// Client builds the transfer client for the client role. Downloads land in
// Config.DownloadDir.
func (w *Wire) Client() (*client.Client, error) {
	keys, err := w.Identity.Keyring(domain.RoleClient)
	if err != nil {
		return nil, err
	}
	downloads, err := store.NewBlobFileStore(w.Config.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("download dir: %w", err)
	}
	return client.New(client.Config{
		Addr:     w.Config.Addr(),
		Policy:   w.Config.Policy(),
		Loss:     w.Config.Loss(),
		MaxFrame: w.Config.MaxFrameBytes,
	}, keys, downloads, w.Metrics, w.Log), nil
}

// Server builds the xferd server over the configured storage backend.
func (w *Wire) Server() (*server.Server, error) {
	keys, err := w.Identity.Keyring(domain.RoleServer)
	if err != nil {
		return nil, err
	}
	blobs, err := w.blobStore()
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Addr:     w.Config.Addr(),
		Policy:   w.Config.Policy(),
		Loss:     w.Config.Loss(),
		MaxFrame: w.Config.MaxFrameBytes,
	}, keys, blobs, w.Metrics, w.Log), nil
}

func (w *Wire) blobStore() (domain.BlobStore, error) {
	switch w.Config.StorageBackend {
	case BackendBadger:
		bs, err := store.OpenBlobBadgerStore(store.BadgerConfig{Path: w.Config.StorageDir, Logger: w.Log})
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, bs)
		return bs, nil
	default:
		bs, err := store.NewBlobFileStore(w.Config.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("storage dir: %w", err)
		}
		return bs, nil
	}
}

// Close releases stores that hold resources.
func (w *Wire) Close() error {
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}
	w.closers = nil
	return errors.Join(errs...)
}
