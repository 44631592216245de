package rtm

import (
	"time"

	"github.com/campuskit/campusd/internal/store"
)

// Frame is the JSON wire schema of the realtime bridge.
type Frame struct {
	Op        string `json:"op"` // join, leave, message, presence, ping
	ChannelID string `json:"channel_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Body      string `json:"body,omitempty"`
	Type      string `json:"type,omitempty"`
	FileURI   string `json:"file_uri,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	SentAt    int64  `json:"sent_at_unix_ms,omitempty"`
	Online    bool   `json:"online,omitempty"`
}

const (
	opJoin     = "join"
	opLeave    = "leave"
	opMessage  = "message"
	opPresence = "presence"
)

// Presence is the payload for rtm.presence bus events.
type Presence struct {
	UserID string
	Online bool
}

// ToStoreMessage normalizes a message frame for ingestion. The id is
// left empty: realtime delivery carries no backend id, so the
// reconciler synthesizes one locally. Status starts as delivered.
func (f *Frame) ToStoreMessage() *store.Message {
	ts := time.UnixMilli(f.SentAt)
	if f.SentAt == 0 {
		ts = time.Now()
	}
	return &store.Message{
		ClientID:  f.ClientID,
		ChannelID: f.ChannelID,
		SenderID:  f.SenderID,
		Body:      f.Body,
		Type:      detectType(f),
		FileURI:   f.FileURI,
		ReplyTo:   f.ReplyTo,
		Status:    store.StatusDelivered,
		Timestamp: ts,
	}
}

// messageFrame builds the outgoing wire frame for a composed message.
func messageFrame(m store.Message) Frame {
	return Frame{
		Op:        opMessage,
		ChannelID: m.ChannelID,
		SenderID:  m.SenderID,
		ClientID:  m.ClientID,
		Body:      m.Body,
		Type:      string(m.Type),
		FileURI:   m.FileURI,
		ReplyTo:   m.ReplyTo,
		SentAt:    m.Timestamp.UnixMilli(),
	}
}

func detectType(f *Frame) store.MessageType {
	switch store.MessageType(f.Type) {
	case store.TypeImage, store.TypeFile, store.TypeVideo:
		return store.MessageType(f.Type)
	default:
		if f.FileURI != "" {
			return store.TypeFile
		}
		return store.TypeText
	}
}
