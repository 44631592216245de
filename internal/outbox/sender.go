// Package outbox drives the outgoing half of the reconciliation
// contract: broadcast-attempt over the realtime bridge, then
// persist-attempt against the backend, then identity rewrite.
package outbox

import (
	"context"
	"time"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/zap"
)

// Broadcaster publishes a message over the realtime transport.
// Best-effort: errors are reported but never block persistence.
type Broadcaster interface {
	Publish(ctx context.Context, m store.Message) error
}

// Persister stores a message on the backend and returns the
// backend-assigned id.
type Persister interface {
	PersistMessage(ctx context.Context, m store.Message) (serverID string, err error)
}

// Sender drains the queued sends. A failed persist marks the entry
// failed and leaves the optimistic message visible with its provisional
// id; nothing is retried automatically.
type Sender struct {
	store       *store.Store
	reconciler  *reconcile.Reconciler
	broadcaster Broadcaster
	persister   Persister
	bus         *bus.Bus
	logger      *zap.Logger
	cancel      context.CancelFunc
}

// NewSender creates a new outbox sender.
func NewSender(s *store.Store, r *reconcile.Reconciler, b Broadcaster, p Persister, eb *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		store:       s,
		reconciler:  r,
		broadcaster: b,
		persister:   p,
		bus:         eb,
		logger:      logger,
	}
}

// Start begins polling for queued sends.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	pending, err := s.store.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := s.store.MarkOutboxSending(entry.ClientID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_id", entry.ClientID))
			continue
		}

		msg, ok := s.lookupMessage(entry)
		if !ok {
			// Message deleted between compose and send.
			_ = s.store.MarkOutboxFailed(entry.ClientID, "message no longer in cache")
			continue
		}

		// Broadcast-attempted: best-effort, never rolls back the
		// optimistic insert and never blocks persistence.
		if err := s.broadcaster.Publish(ctx, msg); err != nil {
			s.logger.Warn("realtime broadcast failed",
				zap.Error(err), zap.String("client_id", entry.ClientID))
			s.bus.Publish(bus.Event{
				Kind:      "message.broadcast_failed",
				Timestamp: time.Now(),
				Payload:   map[string]string{"client_id": entry.ClientID, "error": err.Error()},
			})
		}

		// Persist-attempted.
		serverID, err := s.persister.PersistMessage(ctx, msg)
		if err != nil {
			s.logger.Error("backend persist failed",
				zap.Error(err), zap.String("client_id", entry.ClientID))
			_ = s.store.MarkOutboxFailed(entry.ClientID, err.Error())
			// The message keeps its provisional id and "sent" status;
			// realtime delivery may still have succeeded.
			s.bus.Publish(bus.Event{
				Kind:      "message.send_failed",
				Timestamp: time.Now(),
				Payload:   map[string]string{"client_id": entry.ClientID, "error": err.Error()},
			})
			continue
		}

		if err := s.reconciler.ConfirmSend(entry.ClientID, serverID); err != nil {
			s.logger.Error("failed to adopt backend id",
				zap.Error(err), zap.String("client_id", entry.ClientID))
		}
		if err := s.store.MarkOutboxSent(entry.ClientID, serverID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_id", entry.ClientID))
		}

		s.logger.Info("message persisted",
			zap.String("client_id", entry.ClientID), zap.String("server_id", serverID))
		s.bus.Publish(bus.Event{
			Kind:      "message.send_ack",
			Timestamp: time.Now(),
			Payload:   map[string]string{"client_id": entry.ClientID, "server_id": serverID},
		})
	}
}

func (s *Sender) lookupMessage(entry store.OutboxEntry) (store.Message, bool) {
	msgs, err := s.store.Messages(entry.ChannelID)
	if err != nil {
		return store.Message{}, false
	}
	for _, m := range msgs {
		if m.ClientID == entry.ClientID {
			return m, true
		}
	}
	return store.Message{}, false
}
