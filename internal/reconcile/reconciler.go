// Package reconcile keeps the message cache consistent across three
// concurrent sources: locally composed sends, realtime-delivered
// events, and backend-confirmed history. Each source carries a
// different notion of identity (provisional client ids, synthesized
// local ids, backend ids), so merging is done by a stable logical
// fingerprint plus the correlation id carried on our own sends.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const previewLen = 100

// Reconciler owns all message-collection mutations. Its mutex
// serializes check-then-write sequences across the compose, ingest and
// merge paths so they cannot interleave into duplicates.
type Reconciler struct {
	mu     sync.Mutex
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger

	activeMu sync.RWMutex
	active   string // currently-open channel id, "" when none
}

// New creates a reconciler over the given store.
func New(s *store.Store, b *bus.Bus, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: s, bus: b, logger: logger}
}

// Compose creates a provisional message for an outgoing send and
// optimistically inserts it so the UI shows it instantly. The message
// starts with a client-generated id, status "sent", and is queued for
// the outbox; it stays visible even if every later step fails.
func (r *Reconciler) Compose(senderID, channelID, body string, typ store.MessageType, fileURI, replyTo string) (store.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	m := store.Message{
		ID:        id,
		ClientID:  id,
		ChannelID: channelID,
		SenderID:  senderID,
		Body:      body,
		Type:      typ,
		FileURI:   fileURI,
		ReplyTo:   replyTo,
		Status:    store.StatusSent,
		Timestamp: time.Now(),
	}

	if err := r.store.SaveMessage(m); err != nil {
		return store.Message{}, fmt.Errorf("optimistic insert: %w", err)
	}
	if err := r.store.QueueOutbox(id, channelID); err != nil {
		return store.Message{}, fmt.Errorf("queue send: %w", err)
	}
	r.touchChannel(m, false)

	r.bus.Publish(bus.Event{
		Kind:      "message.upserted",
		Timestamp: time.Now(),
		Payload:   map[string]string{"channel_id": channelID, "id": id},
	})
	return m, nil
}

// IngestRemote processes a realtime-delivered message. Events are
// buffered for every channel, not just the open one; non-active
// channels get their unread count bumped. Echoes of our own sends are
// recognized by client id, copies of backend-persisted messages by
// logical fingerprint; both are dropped.
func (r *Reconciler) IngestRemote(m *store.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.Messages(m.ChannelID)
	if err != nil {
		return err
	}
	if m.ClientID != "" {
		for _, e := range existing {
			if e.ClientID == m.ClientID {
				// Echo of our own send; the outbox owns its status.
				return nil
			}
		}
	}
	fp := fingerprint(*m)
	for _, e := range existing {
		if fingerprint(e) == fp {
			return nil
		}
	}

	stored := *m
	stored.ID = uuid.NewString()
	stored.Status = store.StatusDelivered
	if err := r.store.SaveMessage(stored); err != nil {
		return fmt.Errorf("ingest remote message: %w", err)
	}
	r.touchChannel(stored, stored.ChannelID != r.Active())

	r.bus.Publish(bus.Event{
		Kind:      "message.upserted",
		Timestamp: time.Now(),
		Payload:   map[string]string{"channel_id": stored.ChannelID, "id": stored.ID},
	})
	return nil
}

// MergeHistory folds a backend history fetch into the cache. Messages
// already present under a provisional or synthesized id are re-keyed to
// the backend id instead of duplicated; everything else is appended.
func (r *Reconciler) MergeHistory(channelID string, msgs []store.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.Messages(channelID)
	if err != nil {
		return err
	}
	byID := make(map[string]bool, len(existing))
	byFp := make(map[string]string, len(existing)) // fingerprint -> local id
	for _, e := range existing {
		byID[e.ID] = true
		byFp[fingerprint(e)] = e.ID
	}

	var added int
	var newest *store.Message
	for _, m := range msgs {
		if byID[m.ID] {
			continue
		}
		if localID, ok := byFp[fingerprint(m)]; ok {
			// Same logical message under a local id; adopt the backend id.
			if _, err := r.store.RewriteMessageID(localID, m.ID, store.StatusDelivered); err != nil {
				return fmt.Errorf("adopt backend id %s: %w", m.ID, err)
			}
			byID[m.ID] = true
			continue
		}
		m.ChannelID = channelID
		if err := r.store.SaveMessage(m); err != nil {
			return fmt.Errorf("merge history message %s: %w", m.ID, err)
		}
		byID[m.ID] = true
		byFp[fingerprint(m)] = m.ID
		added++
		if newest == nil || m.Timestamp.After(newest.Timestamp) {
			cp := m
			newest = &cp
		}
	}

	if newest != nil {
		r.touchChannel(*newest, false)
	}
	if added > 0 {
		r.logger.Info("history merged",
			zap.String("channel_id", channelID),
			zap.Int("added", added),
			zap.Int("fetched", len(msgs)))
	}
	return nil
}

// ConfirmSend rewrites a provisional message to its backend identity
// after the persistence API accepts it.
func (r *Reconciler) ConfirmSend(clientID, serverID string) error {
	found, err := r.store.RewriteMessageID(clientID, serverID, store.StatusDelivered)
	if err != nil {
		return err
	}
	if !found {
		r.logger.Warn("confirmed send not in cache", zap.String("client_id", clientID))
	}
	return nil
}

// Open marks a channel as the one on screen: its unread counter resets
// and incoming messages for it no longer bump unread.
func (r *Reconciler) Open(channelID string) ([]store.Message, error) {
	r.activeMu.Lock()
	r.active = channelID
	r.activeMu.Unlock()

	if err := r.store.ResetUnread(channelID); err != nil {
		return nil, err
	}
	return r.Thread(channelID)
}

// Close clears the active channel.
func (r *Reconciler) Close() {
	r.activeMu.Lock()
	r.active = ""
	r.activeMu.Unlock()
}

// Active returns the currently-open channel id.
func (r *Reconciler) Active() string {
	r.activeMu.RLock()
	defer r.activeMu.RUnlock()
	return r.active
}

// Thread returns a channel's messages ordered chronologically. Storage
// order is insertion order, which interleaved sources do not keep
// chronological, so the view re-sorts by timestamp (stable, so equal
// timestamps keep insertion order).
func (r *Reconciler) Thread(channelID string) ([]store.Message, error) {
	msgs, err := r.store.Messages(channelID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

// touchChannel is the single write path for the denormalized channel
// preview. Callers hold r.mu.
func (r *Reconciler) touchChannel(m store.Message, bumpUnread bool) {
	if err := r.store.UpdateChannelPreview(m.ChannelID, preview(m), m.Timestamp, bumpUnread); err != nil {
		r.logger.Error("failed to update channel preview",
			zap.Error(err), zap.String("channel_id", m.ChannelID))
	}
}

func preview(m store.Message) string {
	if m.Body != "" {
		if len(m.Body) > previewLen {
			return m.Body[:previewLen]
		}
		return m.Body
	}
	switch m.Type {
	case store.TypeImage:
		return "[photo]"
	case store.TypeVideo:
		return "[video]"
	case store.TypeFile:
		return "[file]"
	}
	return ""
}

// fingerprint is the stable logical identity of a message: the same
// send seen over realtime and in a backend fetch maps to one key even
// though the two copies carry different ids.
func fingerprint(m store.Message) string {
	return m.SenderID + "\x1f" + strconv.FormatInt(m.Timestamp.UnixMilli(), 10) + "\x1f" + m.Body
}
