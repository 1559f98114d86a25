package model

import "time"

// ChatMessage models a row in the `chat_messages` table. Messages are
// keyed to a booking: the booking identifier doubles as the realtime
// room name, so history survives reconnects independently of room
// membership.
//
// Fields:
//  ID         – primary key identifier of the message.
//  BookingID  – booking (room) the message belongs to.
//  SenderID   – author of the message; only the author may edit or delete it.
//  SenderName – display name captured at send time.
//  Body       – message text.
//  Edited     – true once the body has been changed after creation.
//  CreatedAt  – timestamp of creation.
type ChatMessage struct {
	ID         uint64    // chat_messages.id
	BookingID  string    // chat_messages.booking_id
	SenderID   uint64    // chat_messages.sender_id
	SenderName string    // chat_messages.sender_name
	Body       string    // chat_messages.body
	Edited     bool      // chat_messages.edited
	CreatedAt  time.Time // chat_messages.created_at
}
