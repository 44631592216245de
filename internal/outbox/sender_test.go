package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/kv"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

type mockBroadcaster struct {
	published []store.Message
	err       error
}

func (m *mockBroadcaster) Publish(_ context.Context, msg store.Message) error {
	m.published = append(m.published, msg)
	return m.err
}

type mockPersister struct {
	persisted []store.Message
	serverID  string
	err       error
}

func (m *mockPersister) PersistMessage(_ context.Context, msg store.Message) (string, error) {
	m.persisted = append(m.persisted, msg)
	if m.err != nil {
		return "", m.err
	}
	return m.serverID, nil
}

func testSender(t *testing.T, b *mockBroadcaster, p *mockPersister) (*Sender, *reconcile.Reconciler, *store.Store, *bus.Bus) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := kv.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := store.New(db, zap.NewNop())
	eb := bus.New()
	r := reconcile.New(s, eb, zap.NewNop())
	return NewSender(s, r, b, p, eb, zap.NewNop()), r, s, eb
}

func TestSendAdoptsBackendID(t *testing.T) {
	bc := &mockBroadcaster{}
	ps := &mockPersister{serverID: "abc123"}
	sender, r, s, eb := testSender(t, bc, ps)

	ch, unsub := eb.Subscribe("message.send_ack", 10)
	defer unsub()

	m, err := r.Compose("u1", "c1", "hello", store.TypeText, "", "")
	if err != nil {
		t.Fatal(err)
	}

	sender.processPending(context.Background())

	if len(bc.published) != 1 || bc.published[0].ClientID != m.ClientID {
		t.Fatalf("published = %+v, want the composed message", bc.published)
	}
	if len(ps.persisted) != 1 {
		t.Fatalf("persisted = %+v, want one message", ps.persisted)
	}

	// Exactly one message, now carrying the backend id.
	msgs, err := s.Messages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if msgs[0].ID != "abc123" {
		t.Errorf("id = %q, want abc123", msgs[0].ID)
	}
	if msgs[0].ClientID != m.ClientID {
		t.Errorf("client id = %q, want %q", msgs[0].ClientID, m.ClientID)
	}
	if msgs[0].Status != store.StatusDelivered {
		t.Errorf("status = %q, want delivered", msgs[0].Status)
	}

	select {
	case ev := <-ch:
		payload := ev.Payload.(map[string]string)
		if payload["server_id"] != "abc123" {
			t.Errorf("ack server_id = %q, want abc123", payload["server_id"])
		}
	default:
		t.Error("expected a send_ack event")
	}

	// Nothing left to pick up.
	pending, err := s.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want empty", pending)
	}
}

func TestPersistFailureLeavesMessageVisible(t *testing.T) {
	bc := &mockBroadcaster{}
	ps := &mockPersister{err: errors.New("backend unreachable")}
	sender, r, s, eb := testSender(t, bc, ps)

	ch, unsub := eb.Subscribe("message.send_failed", 10)
	defer unsub()

	m, err := r.Compose("u1", "c1", "hello", store.TypeText, "", "")
	if err != nil {
		t.Fatal(err)
	}

	sender.processPending(context.Background())

	// The optimistic insert survives with its provisional id.
	msgs, err := s.Messages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != m.ClientID {
		t.Fatalf("messages = %+v, want the provisional message", msgs)
	}
	if msgs[0].Status != store.StatusSent {
		t.Errorf("status = %q, want sent", msgs[0].Status)
	}

	select {
	case <-ch:
	default:
		t.Error("expected a send_failed event")
	}

	// Failed entries are never re-picked.
	pending, err := s.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want empty", pending)
	}
	sender.processPending(context.Background())
	if len(ps.persisted) != 1 {
		t.Errorf("persist attempts = %d, want 1", len(ps.persisted))
	}
}

func TestBroadcastFailureStillPersists(t *testing.T) {
	bc := &mockBroadcaster{err: errors.New("socket closed")}
	ps := &mockPersister{serverID: "srv-1"}
	sender, r, s, eb := testSender(t, bc, ps)

	ch, unsub := eb.Subscribe("message.broadcast_failed", 10)
	defer unsub()

	if _, err := r.Compose("u1", "c1", "hello", store.TypeText, "", ""); err != nil {
		t.Fatal(err)
	}

	sender.processPending(context.Background())

	if len(ps.persisted) != 1 {
		t.Fatalf("persist attempts = %d, want 1 despite broadcast failure", len(ps.persisted))
	}
	msgs, err := s.Messages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != "srv-1" {
		t.Fatalf("messages = %+v, want backend id adopted", msgs)
	}

	select {
	case <-ch:
	default:
		t.Error("expected a broadcast_failed event")
	}
}

func TestDeletedMessageMarksFailed(t *testing.T) {
	bc := &mockBroadcaster{}
	ps := &mockPersister{serverID: "srv-1"}
	sender, r, s, _ := testSender(t, bc, ps)

	m, err := r.Compose("u1", "c1", "hello", store.TypeText, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMessage(m.ID); err != nil {
		t.Fatal(err)
	}

	sender.processPending(context.Background())

	if len(ps.persisted) != 0 {
		t.Errorf("persist attempts = %d, want 0 for a deleted message", len(ps.persisted))
	}
	pending, err := s.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want empty", pending)
	}
}
