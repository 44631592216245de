package store

import "time"

// SaveChannel upserts a channel by id: an existing record is replaced
// wholesale, otherwise the channel is appended. Contrast with
// SaveMessage, which never dedupes.
func (s *Store) SaveChannel(c Channel) error {
	mu := s.lock(keyChannels)
	mu.Lock()
	defer mu.Unlock()

	channels, err := readSlice[Channel](s, keyChannels)
	if err != nil {
		return err
	}
	for i := range channels {
		if channels[i].ID == c.ID {
			channels[i] = c
			return writeSlice(s, keyChannels, channels)
		}
	}
	return writeSlice(s, keyChannels, append(channels, c))
}

// Channels returns all cached channels in storage order.
func (s *Store) Channels() ([]Channel, error) {
	return readSlice[Channel](s, keyChannels)
}

// Channel returns a single channel by id, or nil if unknown.
func (s *Store) Channel(id string) (*Channel, error) {
	channels, err := readSlice[Channel](s, keyChannels)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		if channels[i].ID == id {
			c := channels[i]
			return &c, nil
		}
	}
	return nil, nil
}

// DeleteChannel removes a channel permanently. Unknown ids are a no-op.
func (s *Store) DeleteChannel(id string) error {
	mu := s.lock(keyChannels)
	mu.Lock()
	defer mu.Unlock()

	channels, err := readSlice[Channel](s, keyChannels)
	if err != nil {
		return err
	}
	kept := channels[:0]
	for _, c := range channels {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(channels) {
		return nil
	}
	return writeSlice(s, keyChannels, kept)
}

// PinChannel sets the pinned flag on a channel. Unknown ids are a
// silent no-op.
func (s *Store) PinChannel(id string, pinned bool) error {
	return s.mutateChannel(id, func(c *Channel) { c.Pinned = pinned })
}

// UpdateChannelPreview refreshes the denormalized last-message preview
// and timestamp, optionally bumping the unread count. This is the single
// write path for preview metadata; nothing else touches those fields.
func (s *Store) UpdateChannelPreview(id, preview string, ts time.Time, bumpUnread bool) error {
	return s.mutateChannel(id, func(c *Channel) {
		c.LastMessage = preview
		c.Timestamp = ts
		if bumpUnread {
			c.UnreadCount++
		}
	})
}

// ResetUnread zeroes a channel's unread counter, e.g. when the channel
// is opened.
func (s *Store) ResetUnread(id string) error {
	return s.mutateChannel(id, func(c *Channel) { c.UnreadCount = 0 })
}

// ChannelCount returns the total number of cached channels.
func (s *Store) ChannelCount() (int, error) {
	channels, err := readSlice[Channel](s, keyChannels)
	if err != nil {
		return 0, err
	}
	return len(channels), nil
}

func (s *Store) mutateChannel(id string, fn func(*Channel)) error {
	mu := s.lock(keyChannels)
	mu.Lock()
	defer mu.Unlock()

	channels, err := readSlice[Channel](s, keyChannels)
	if err != nil {
		return err
	}
	for i := range channels {
		if channels[i].ID == id {
			fn(&channels[i])
			return writeSlice(s, keyChannels, channels)
		}
	}
	return nil
}
