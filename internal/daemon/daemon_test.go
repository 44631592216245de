package daemon

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/campuskit/campusd/internal/api"
	"github.com/campuskit/campusd/internal/backend"
	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/kv"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/rtm"
	"github.com/campuskit/campusd/internal/status"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

func testDeps(t *testing.T) (*store.Store, *bus.Bus, *status.Machine, *api.API, *backend.Client, *rtm.Adapter) {
	t.Helper()
	db, err := kv.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	s := store.New(db, logger)
	eb := bus.New()
	m := status.NewMachine(eb)
	be := backend.New("http://127.0.0.1:1", time.Second, logger)
	adapter := rtm.NewAdapter("ws://127.0.0.1:1/ws", eb, logger)
	r := reconcile.New(s, eb, logger)
	a := api.New(s, r, be, adapter, m, eb, logger)
	return s, eb, m, a, be, adapter
}

func TestServerServesOverUnixSocket(t *testing.T) {
	// Use a short path to avoid the Unix socket length limit.
	tmpDir, err := os.MkdirTemp("/tmp", "campusd-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	socketPath := filepath.Join(tmpDir, "d.sock")

	_, _, _, a, _, _ := testDeps(t)

	srv, err := NewServer(Params{Profile: "test", SocketPath: socketPath}, a, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 2 * time.Second,
	}

	var resp *http.Response
	for i := 0; i < 20; i++ {
		resp, err = client.Get("http://campusd/v1/status")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("status request never succeeded: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}

	// Socket should carry owner-only permissions.
	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket perm = %o, want 600", perm)
	}
}

func TestServerCleansStaleSocket(t *testing.T) {
	tmpDir, err := os.MkdirTemp("/tmp", "campusd-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	socketPath := filepath.Join(tmpDir, "d.sock")

	// Leave a stale socket file behind.
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = l.Close()
	if _, err := os.Stat(socketPath); err == nil {
		// Some platforms remove the socket on close; recreate a plain file.
	} else {
		if err := os.WriteFile(socketPath, nil, 0600); err != nil {
			t.Fatal(err)
		}
	}

	_, _, _, a, _, _ := testDeps(t)
	srv, err := NewServer(Params{Profile: "test", SocketPath: socketPath}, a, zap.NewNop())
	if err != nil {
		t.Fatalf("stale socket not cleaned: %v", err)
	}
	srv.Stop(context.Background())
}

func TestConnectorBootsToLoggedOutWithoutUser(t *testing.T) {
	s, eb, m, _, be, adapter := testDeps(t)

	c := NewConnector(s, be, adapter, m, eb, zap.NewNop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if got := m.Current(); got != status.LoggedOut {
		t.Errorf("state = %s, want %s", got, status.LoggedOut)
	}
}

func TestConnectorLogoutEventDisconnects(t *testing.T) {
	s, eb, m, _, be, adapter := testDeps(t)

	c := NewConnector(s, be, adapter, m, eb, zap.NewNop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	// Already logged out; a logout event while logged out stays put.
	eb.Publish(bus.Event{Kind: "session.logged_out", Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)
	if got := m.Current(); got != status.LoggedOut {
		t.Errorf("state = %s, want %s", got, status.LoggedOut)
	}
}
