package store

import "time"

// QueueOutbox adds a composed message to the send queue.
func (s *Store) QueueOutbox(clientID, channelID string) error {
	mu := s.lock(keyOutbox)
	mu.Lock()
	defer mu.Unlock()

	entries, err := readSlice[OutboxEntry](s, keyOutbox)
	if err != nil {
		return err
	}
	return writeSlice(s, keyOutbox, append(entries, OutboxEntry{
		ClientID:  clientID,
		ChannelID: channelID,
		Status:    OutboxQueued,
		QueuedAt:  time.Now(),
	}))
}

// PendingOutbox returns entries still queued, oldest first.
func (s *Store) PendingOutbox() ([]OutboxEntry, error) {
	entries, err := readSlice[OutboxEntry](s, keyOutbox)
	if err != nil {
		return nil, err
	}
	var pending []OutboxEntry
	for _, e := range entries {
		if e.Status == OutboxQueued {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// MarkOutboxSending moves an entry to the sending state.
func (s *Store) MarkOutboxSending(clientID string) error {
	return s.mutateOutbox(clientID, func(e *OutboxEntry) {
		e.Status = OutboxSending
	})
}

// MarkOutboxSent records the backend-assigned id for a confirmed send.
func (s *Store) MarkOutboxSent(clientID, serverID string) error {
	return s.mutateOutbox(clientID, func(e *OutboxEntry) {
		e.Status = OutboxSent
		e.ServerID = serverID
	})
}

// MarkOutboxFailed records a persist failure. Failed entries are never
// re-picked; the user resends manually if they care.
func (s *Store) MarkOutboxFailed(clientID, errMsg string) error {
	return s.mutateOutbox(clientID, func(e *OutboxEntry) {
		e.Status = OutboxFailed
		e.Error = errMsg
	})
}

func (s *Store) mutateOutbox(clientID string, fn func(*OutboxEntry)) error {
	mu := s.lock(keyOutbox)
	mu.Lock()
	defer mu.Unlock()

	entries, err := readSlice[OutboxEntry](s, keyOutbox)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ClientID == clientID {
			fn(&entries[i])
			return writeSlice(s, keyOutbox, entries)
		}
	}
	return nil
}
