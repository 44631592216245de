package store

import "time"

// MessageType classifies message content.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeFile  MessageType = "file"
	TypeVideo MessageType = "video"
)

// MessageStatus is the client-local delivery status. It is not
// necessarily in sync with what the backend believes.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Message is a cached chat message. ID starts out as a client-generated
// provisional id and is rewritten to the backend-assigned id once the
// backend confirms the send. ClientID is the stable correlation id that
// survives the rewrite.
type Message struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id,omitempty"`
	ChannelID string        `json:"channel_id"`
	SenderID  string        `json:"sender_id"`
	Body      string        `json:"body"`
	Type      MessageType   `json:"type"`
	FileURI   string        `json:"file_uri,omitempty"`
	ReplyTo   string        `json:"reply_to,omitempty"`
	Starred   bool          `json:"starred"`
	Pinned    bool          `json:"pinned"`
	Status    MessageStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// Channel is a cached conversation: a 1:1 contact or a group.
// LastMessage and Timestamp are a denormalized preview of the most
// recent message, maintained through UpdateChannelPreview.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	LastMessage string    `json:"last_message"`
	Timestamp   time.Time `json:"timestamp"`
	UnreadCount int       `json:"unread_count"`
	IsGroup     bool      `json:"is_group"`
	Members     []string  `json:"members,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Pinned      bool      `json:"pinned"`
}

// Role is a campus account role.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// User is a cached participant. The current-user singleton uses the
// same shape but lives under its own key.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Avatar   string `json:"avatar,omitempty"`
	Approved bool   `json:"approved"`
}

// GalleryImage is a camera capture kept on-device.
type GalleryImage struct {
	ID        string    `json:"id"`
	URI       string    `json:"uri"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// OutboxStatus tracks an outgoing send attempt.
type OutboxStatus string

const (
	OutboxQueued  OutboxStatus = "queued"
	OutboxSending OutboxStatus = "sending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEntry is a pending outgoing message awaiting broadcast and
// backend persistence. ClientID matches the provisional Message.ID.
// Failed entries stay in the collection for inspection but are never
// re-picked: there is no automatic retry.
type OutboxEntry struct {
	ClientID  string       `json:"client_id"`
	ChannelID string       `json:"channel_id"`
	Status    OutboxStatus `json:"status"`
	ServerID  string       `json:"server_id,omitempty"`
	Error     string       `json:"error,omitempty"`
	QueuedAt  time.Time    `json:"queued_at"`
}
