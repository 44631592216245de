package rtm

import (
	"testing"
	"time"

	"github.com/campuskit/campusd/internal/store"
)

func TestToStoreMessage(t *testing.T) {
	f := &Frame{
		Op:        "message",
		ChannelID: "c1",
		SenderID:  "u2",
		Body:      "see you at the lab",
		Type:      "text",
		SentAt:    1700000000000,
	}
	m := f.ToStoreMessage()

	if m.ID != "" {
		t.Errorf("id = %q, realtime messages carry no id until ingestion", m.ID)
	}
	if m.Status != store.StatusDelivered {
		t.Errorf("status = %q, want delivered", m.Status)
	}
	if m.ChannelID != "c1" || m.SenderID != "u2" || m.Body != "see you at the lab" {
		t.Errorf("message = %+v", m)
	}
	if m.Timestamp != time.UnixMilli(1700000000000) {
		t.Errorf("timestamp = %v", m.Timestamp)
	}
}

func TestToStoreMessageMissingTimestamp(t *testing.T) {
	before := time.Now()
	m := (&Frame{Op: "message", ChannelID: "c1"}).ToStoreMessage()
	if m.Timestamp.Before(before) {
		t.Errorf("timestamp = %v, want synthesized now", m.Timestamp)
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		f    Frame
		want store.MessageType
	}{
		{"explicit text", Frame{Type: "text"}, store.TypeText},
		{"image", Frame{Type: "image"}, store.TypeImage},
		{"video", Frame{Type: "video"}, store.TypeVideo},
		{"file", Frame{Type: "file"}, store.TypeFile},
		{"unknown with uri", Frame{Type: "sticker", FileURI: "file:///x"}, store.TypeFile},
		{"unknown without uri", Frame{Type: "sticker"}, store.TypeText},
		{"empty", Frame{}, store.TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectType(&tt.f); got != tt.want {
				t.Errorf("detectType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageFrameRoundTrip(t *testing.T) {
	m := store.Message{
		ID:        "tmp-1",
		ClientID:  "tmp-1",
		ChannelID: "c1",
		SenderID:  "u1",
		Body:      "hello",
		Type:      store.TypeText,
		Timestamp: time.UnixMilli(1700000000000),
	}
	f := messageFrame(m)
	if f.Op != "message" {
		t.Errorf("op = %q", f.Op)
	}
	if f.ClientID != "tmp-1" {
		t.Error("client id must ride along so receivers can dedupe echoes")
	}

	got := f.ToStoreMessage()
	if got.ChannelID != m.ChannelID || got.Body != m.Body || got.ClientID != m.ClientID {
		t.Errorf("round trip = %+v", got)
	}
}
