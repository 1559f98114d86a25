// Package service implements the chat message relay: it persists chat
// events through the message store and fans them out to the members of
// the booking's room. Persistence always happens first; a broadcast
// never fires for a write that failed, so connected clients cannot
// drift from the durable record.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/queue"
	"github.com/anyhire/anyhire-server/internal/repository"
)

// Realtime event names emitted to room members.
const (
	EventReceiveMessage = "receive_message"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventTyping         = "typing"
)

// ErrEmptyMessage rejects blank or whitespace-only message bodies.
var ErrEmptyMessage = errors.New("message body is empty")

// MessageStore is the slice of the message repository the relay needs.
type MessageStore interface {
	Insert(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error)
	GetByID(ctx context.Context, id uint64) (model.ChatMessage, error)
	UpdateBody(ctx context.Context, id uint64, body string) error
	Delete(ctx context.Context, id uint64) error
	ListByBooking(ctx context.Context, bookingID string) ([]model.ChatMessage, error)
}

// Broadcaster fans an event out to a room, optionally excluding one
// connection (the sender, who already has local optimistic state).
type Broadcaster interface {
	Broadcast(bookingID, event string, payload any, excludeID string)
}

// Publisher pushes message-stored events to the broker for the
// notification worker. Failures are the publisher's to log; the relay
// never fails a send because a notification could not be queued.
type Publisher interface {
	PublishMessageStored(ctx context.Context, ev queue.MessageStoredEvent) error
}

// MessagePayload is the wire shape of a chat message in realtime events
// and REST responses.
type MessagePayload struct {
	ID         uint64    `json:"id"`
	BookingID  string    `json:"bookingId"`
	SenderID   uint64    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Edited     bool      `json:"edited"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeletePayload carries only the identifiers of a removed message.
type DeletePayload struct {
	ID        uint64 `json:"id"`
	BookingID string `json:"bookingId"`
}

// TypingPayload is ephemeral: relayed to room peers, never persisted.
// Expiry of the indicator is a client-side timeout.
type TypingPayload struct {
	BookingID string `json:"bookingId"`
	UserID    uint64 `json:"userId"`
	Name      string `json:"name"`
	IsTyping  bool   `json:"isTyping"`
}

// ChatService relays message create/edit/delete/typing events. The
// realtime layer trusts the authenticated connection's identity for who
// is speaking, but ownership of an existing message is always
// re-verified against the persisted senderId, never the caller's claim.
type ChatService struct {
	Messages MessageStore
	Rooms    Broadcaster
	Notify   Publisher // optional
}

func NewChatService(messages MessageStore, rooms Broadcaster, notify Publisher) *ChatService {
	return &ChatService{Messages: messages, Rooms: rooms, Notify: notify}
}

// ToPayload converts a stored message into its wire shape. Handlers use
// it so REST responses carry the same field names as realtime frames.
func ToPayload(m model.ChatMessage) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		BookingID:  m.BookingID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Message:    m.Body,
		Edited:     m.Edited,
		CreatedAt:  m.CreatedAt,
	}
}

// Send persists a new message and broadcasts receive_message to the
// other members of the booking's room. The sender's own connection
// (excludeID) is skipped uniformly; its UI already shows the message.
func (s *ChatService) Send(ctx context.Context, bookingID string, sender model.User, body, excludeID string) (model.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" || bookingID == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}
	m, err := s.Messages.Insert(ctx, model.ChatMessage{
		BookingID:  bookingID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Body:       body,
	})
	if err != nil {
		return model.ChatMessage{}, err
	}
	s.Rooms.Broadcast(bookingID, EventReceiveMessage, ToPayload(m), excludeID)
	if s.Notify != nil {
		_ = s.Notify.PublishMessageStored(ctx, queue.MessageStoredEvent{
			MessageID:  m.ID,
			BookingID:  m.BookingID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Body:       m.Body,
			CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return m, nil
}

// Edit replaces the body of a message owned by the requester and
// broadcasts message_edited. A non-owner gets ErrForbidden and nothing
// is mutated or broadcast.
func (s *ChatService) Edit(ctx context.Context, messageID uint64, requester model.User, newBody, excludeID string) (model.ChatMessage, error) {
	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}
	m, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return model.ChatMessage{}, err
	}
	if m.SenderID != requester.ID {
		return model.ChatMessage{}, repository.ErrForbidden
	}
	if err := s.Messages.UpdateBody(ctx, messageID, newBody); err != nil {
		return model.ChatMessage{}, err
	}
	m.Body = newBody
	m.Edited = true
	s.Rooms.Broadcast(m.BookingID, EventMessageEdited, ToPayload(m), excludeID)
	return m, nil
}

// Delete removes a message owned by the requester and broadcasts
// message_deleted carrying only the identifiers.
func (s *ChatService) Delete(ctx context.Context, messageID uint64, requester model.User, excludeID string) (model.ChatMessage, error) {
	m, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return model.ChatMessage{}, err
	}
	if m.SenderID != requester.ID {
		return model.ChatMessage{}, repository.ErrForbidden
	}
	if err := s.Messages.Delete(ctx, messageID); err != nil {
		return model.ChatMessage{}, err
	}
	s.Rooms.Broadcast(m.BookingID, EventMessageDeleted, DeletePayload{ID: m.ID, BookingID: m.BookingID}, excludeID)
	return m, nil
}

// Typing relays a typing indicator to the other room members. Nothing
// is persisted.
func (s *ChatService) Typing(bookingID string, user model.User, isTyping bool, excludeID string) {
	if bookingID == "" {
		return
	}
	s.Rooms.Broadcast(bookingID, EventTyping, TypingPayload{
		BookingID: bookingID,
		UserID:    user.ID,
		Name:      user.Name,
		IsTyping:  isTyping,
	}, excludeID)
}

// History returns the booking's full message history, oldest first, as
// a single snapshot for clients to load on (re)connect.
func (s *ChatService) History(ctx context.Context, bookingID string) ([]MessagePayload, error) {
	msgs, err := s.Messages.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	out := make([]MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToPayload(m))
	}
	return out, nil
}
