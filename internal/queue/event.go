// Package queue defines message payloads exchanged over the message broker.
package queue

// MessageStoredEvent is published after a chat message has been
// persisted. It contains enough information for downstream consumers to
// log or notify the booking's participants without querying the primary
// database.
type MessageStoredEvent struct {
	MessageID  uint64 `json:"message_id"`
	BookingID  string `json:"booking_id"`
	SenderID   uint64 `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}
