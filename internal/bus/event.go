package bus

import "time"

// Event is a domain event published on the bus.
//
// Kinds in use:
//
//	rtm.message, rtm.presence, rtm.connected, rtm.disconnected
//	message.upserted, message.send_ack, message.send_failed,
//	message.broadcast_failed
//	session.authenticated, session.logged_out, session.status_changed
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
