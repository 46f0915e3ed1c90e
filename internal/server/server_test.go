package server

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherxfer/internal/client"
	"cipherxfer/internal/crypto"
	"cipherxfer/internal/domain"
	"cipherxfer/internal/metrics"
	"cipherxfer/internal/protocol/retry"
	"cipherxfer/internal/store"
	"cipherxfer/internal/wire"
)

var (
	keysOnce               sync.Once
	clientPriv, serverPriv *rsa.PrivateKey
)

func keyrings(t *testing.T) (clientKeys, serverKeys domain.Keyring) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		if clientPriv, err = crypto.GenerateRSA(); err != nil {
			panic(err)
		}
		if serverPriv, err = crypto.GenerateRSA(); err != nil {
			panic(err)
		}
	})
	clientKeys = domain.Keyring{
		Self: domain.Identity{Role: domain.RoleClient, Private: clientPriv, Public: &clientPriv.PublicKey},
		Peer: &serverPriv.PublicKey,
	}
	serverKeys = domain.Keyring{
		Self: domain.Identity{Role: domain.RoleServer, Private: serverPriv, Public: &serverPriv.PublicKey},
		Peer: &clientPriv.PublicKey,
	}
	return clientKeys, serverKeys
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	addr      string
	stored    domain.BlobStore
	downloads *store.BlobFileStore
	client    *client.Client
	metrics   *metrics.Metrics
	cancel    context.CancelFunc
	served    chan error
}

var testPolicy = retry.Policy{Attempts: 3, Timeout: time.Second}

func start(t *testing.T, blobs domain.BlobStore) *harness {
	t.Helper()
	ck, sk := keyrings(t)
	if blobs == nil {
		var err error
		blobs, err = store.NewBlobFileStore(t.TempDir())
		require.NoError(t, err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := metrics.New()
	srv := New(Config{Policy: testPolicy}, sk, blobs, m, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		addr:    ln.Addr().String(),
		stored:  blobs,
		metrics: m,
		cancel:  cancel,
		served:  make(chan error, 1),
	}
	go func() { h.served <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.served:
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	h.downloads, err = store.NewBlobFileStore(t.TempDir())
	require.NoError(t, err)
	h.client = client.New(client.Config{Addr: h.addr, Policy: testPolicy}, ck, h.downloads, nil, quiet())
	return h
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEndToEnd_Upload(t *testing.T) {
	h := start(t, nil)
	path := writeTemp(t, "a.txt", []byte("0123456789"))

	require.NoError(t, h.client.Upload(context.Background(), path))

	got, err := h.stored.Get("a.txt")
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, []byte("0123456789"), got)
}

func TestEndToEnd_DownloadMissing(t *testing.T) {
	h := start(t, nil)

	n, err := h.client.Download(context.Background(), "ghost.bin")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Zero(t, n)

	_, err = h.downloads.Get("ghost.bin")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEndToEnd_UploadThenDownload(t *testing.T) {
	h := start(t, nil)
	payload := make([]byte, 100_000)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	require.NoError(t, h.client.Upload(context.Background(), writeTemp(t, "blob.bin", payload)))

	n, err := h.client.Download(context.Background(), "blob.bin")
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	got, err := h.downloads.Get("blob.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEndToEnd_BadgerBackend(t *testing.T) {
	bs, err := store.OpenBlobBadgerStore(store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })
	h := start(t, bs)

	require.NoError(t, h.client.Upload(context.Background(), writeTemp(t, "a.txt", []byte("badger"))))
	_, err = h.client.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	got, err := h.downloads.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("badger"), got)
}

func TestEndToEnd_ConcurrentUploads(t *testing.T) {
	h := start(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		path := writeTemp(t, fmt.Sprintf("f%d.txt", i), []byte(fmt.Sprintf("file %d", i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.client.Upload(context.Background(), path))
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		got, err := h.stored.Get(fmt.Sprintf("f%d.txt", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("file %d", i), string(got))
	}
}

func TestEndToEnd_ImposterHandshake(t *testing.T) {
	h := start(t, nil)

	nc, err := net.Dial("tcp", h.addr)
	require.NoError(t, err)
	conn := wire.NewConn(nc, wire.WithTimeout(2*time.Second))
	defer conn.Close()

	require.NoError(t, conn.SendMessage([]byte("hello?")))
	got, err := conn.ReceiveMessage()
	assert.ErrorIs(t, err, wire.ErrConnectionClosed)
	assert.NotEqual(t, domain.ReadyToken, string(got))

	// The listener is unaffected.
	require.NoError(t, h.client.Upload(context.Background(), writeTemp(t, "after.txt", []byte("ok"))))
}

func TestServer_BoundsFramesBeforeHandshake(t *testing.T) {
	h := start(t, nil)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	for i := 0; i < 4; i++ {
		nc, err := net.Dial("tcp", h.addr)
		require.NoError(t, err)
		// Header claiming 250 MiB, then nothing.
		_, err = nc.Write([]byte{0x0f, 0xa0, 0x00, 0x00})
		require.NoError(t, err)

		require.NoError(t, nc.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, err = wire.ReadFrame(nc, 0)
		assert.ErrorIs(t, err, wire.ErrConnectionClosed, "server should drop the connection")
		_ = nc.Close()
	}
	runtime.ReadMemStats(&after)

	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
	require.NoError(t, h.client.Upload(context.Background(), writeTemp(t, "after.txt", []byte("ok"))))
}

type panickingStore struct{ domain.BlobStore }

func (panickingStore) Put(string, []byte) error { panic("disk on fire") }

func TestServer_RecoversFromHandlerPanic(t *testing.T) {
	inner, err := store.NewBlobFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, inner.Put("kept.txt", []byte("still here")))
	h := start(t, panickingStore{inner})

	err = h.client.Upload(context.Background(), writeTemp(t, "a.txt", []byte("x")))
	assert.ErrorIs(t, err, domain.ErrTransferFailed)

	// Other connections keep working.
	_, err = h.client.Download(context.Background(), "kept.txt")
	require.NoError(t, err)
}

func TestServer_StopsOnCancel(t *testing.T) {
	h := start(t, nil)
	h.cancel()

	select {
	case err := <-h.served:
		assert.NoError(t, err)
		h.served <- err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}

	_, err := net.DialTimeout("tcp", h.addr, 200*time.Millisecond)
	assert.Error(t, err)
}

// fdStarvedListener fails its first few Accept calls the way a process out
// of file descriptors does.
type fdStarvedListener struct {
	net.Listener
	failures atomic.Int32
}

func (l *fdStarvedListener) Accept() (net.Conn, error) {
	if l.failures.Add(-1) >= 0 {
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept4", syscall.EMFILE)}
	}
	return l.Listener.Accept()
}

func TestServer_KeepsAcceptingAfterTransientErrors(t *testing.T) {
	ck, sk := keyrings(t)
	blobs, err := store.NewBlobFileStore(t.TempDir())
	require.NoError(t, err)

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln := &fdStarvedListener{Listener: inner}
	ln.failures.Store(4)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- New(Config{Policy: testPolicy}, sk, blobs, nil, quiet()).Serve(ctx, ln) }()

	downloads, err := store.NewBlobFileStore(t.TempDir())
	require.NoError(t, err)
	cl := client.New(client.Config{Addr: inner.Addr().String(), Policy: testPolicy}, ck, downloads, nil, quiet())
	require.NoError(t, cl.Upload(context.Background(), writeTemp(t, "later.txt", []byte("ok"))))
	assert.Less(t, ln.failures.Load(), int32(0))

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServer_ReturnsWhenListenerClosed(t *testing.T) {
	_, sk := keyrings(t)
	blobs, err := store.NewBlobFileStore(t.TempDir())
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() {
		served <- New(Config{Policy: testPolicy}, sk, blobs, nil, quiet()).Serve(context.Background(), ln)
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ln.Close())

	select {
	case err := <-served:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
