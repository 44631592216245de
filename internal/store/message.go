package store

// SaveMessage appends a message and rewrites the collection. There is
// deliberately no dedupe by id: two calls with the same id produce two
// stored records. Callers that need idempotence must check first; the
// reconciler is the only writer and does exactly that.
func (s *Store) SaveMessage(m Message) error {
	mu := s.lock(keyMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return err
	}
	return writeSlice(s, keyMessages, append(msgs, m))
}

// Messages returns all messages, or only those for channelID when it is
// non-empty, in storage (insertion) order. Insertion order is not
// guaranteed chronological; view code re-sorts by timestamp.
func (s *Store) Messages(channelID string) ([]Message, error) {
	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return msgs, nil
	}
	var out []Message
	for _, m := range msgs {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

// DeleteMessage filters the message out permanently. Deleting an
// unknown id is a no-op.
func (s *Store) DeleteMessage(id string) error {
	mu := s.lock(keyMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return err
	}
	kept := msgs[:0]
	for _, m := range msgs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(msgs) {
		return nil
	}
	return writeSlice(s, keyMessages, kept)
}

// StarMessage sets the starred flag on the first message with the given
// id. Unknown ids are a silent no-op.
func (s *Store) StarMessage(id string, starred bool) error {
	return s.mutateMessage(id, func(m *Message) { m.Starred = starred })
}

// PinMessage sets the pinned flag on the first message with the given
// id. Unknown ids are a silent no-op.
func (s *Store) PinMessage(id string, pinned bool) error {
	return s.mutateMessage(id, func(m *Message) { m.Pinned = pinned })
}

// MarkMessageStatus updates the status of the first message with the
// given id.
func (s *Store) MarkMessageStatus(id string, status MessageStatus) error {
	return s.mutateMessage(id, func(m *Message) { m.Status = status })
}

// RewriteMessageID rewrites a message's identity after the backend
// confirms a send: the first message whose ID or ClientID equals oldID
// gets the backend-assigned newID and the given status. Returns whether
// a message was found.
func (s *Store) RewriteMessageID(oldID, newID string, status MessageStatus) (bool, error) {
	mu := s.lock(keyMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return false, err
	}
	for i := range msgs {
		if msgs[i].ID == oldID || msgs[i].ClientID == oldID {
			msgs[i].ID = newID
			msgs[i].Status = status
			return true, writeSlice(s, keyMessages, msgs)
		}
	}
	return false, nil
}

// StarredMessages is a derived view: the filter of all messages with
// the starred flag set. It is not a separately stored collection, so it
// is always consistent with the messages collection by construction.
func (s *Store) StarredMessages() ([]Message, error) {
	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return nil, err
	}
	var out []Message
	for _, m := range msgs {
		if m.Starred {
			out = append(out, m)
		}
	}
	return out, nil
}

// MessageCount returns the total number of cached messages.
func (s *Store) MessageCount() (int, error) {
	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (s *Store) mutateMessage(id string, fn func(*Message)) error {
	mu := s.lock(keyMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readSlice[Message](s, keyMessages)
	if err != nil {
		return err
	}
	for i := range msgs {
		if msgs[i].ID == id {
			fn(&msgs[i])
			return writeSlice(s, keyMessages, msgs)
		}
	}
	return nil
}
