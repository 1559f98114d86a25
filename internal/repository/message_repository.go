package repository

import (
	"context"
	"database/sql"

	"github.com/anyhire/anyhire-server/internal/model"
)

const messageColumns = "id,booking_id,sender_id,sender_name,body,edited,created_at"

// MessageRepo persists chat messages in the `chat_messages` table.
// Messages outlive room membership so history survives reconnects.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Insert stores a new message and returns it with the generated ID and
// the server-side creation timestamp filled in.
func (r *MessageRepo) Insert(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO chat_messages (booking_id, sender_id, sender_name, body) VALUES (?,?,?,?)",
		m.BookingID, m.SenderID, m.SenderName, m.Body)
	if err != nil {
		return model.ChatMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ChatMessage{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single message.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.ChatMessage, error) {
	var m model.ChatMessage
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM chat_messages WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.BookingID, &m.SenderID, &m.SenderName, &m.Body, &m.Edited, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.ChatMessage{}, ErrNotFound
	}
	return m, err
}

// UpdateBody replaces a message body and marks it edited. Ownership and
// existence are checked by the chat service before this is called, so
// RowsAffected is deliberately not consulted: MySQL reports rows
// changed, not rows matched, and re-submitting the current body would
// otherwise look like a missing row.
func (r *MessageRepo) UpdateBody(ctx context.Context, id uint64, body string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE chat_messages SET body=?, edited=1 WHERE id=?",
		body, id)
	return err
}

// Delete removes a message row.
func (r *MessageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM chat_messages WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByBooking returns the full message history for a booking, oldest
// first. It is a single snapshot fetch, not a resumable stream: clients
// call it once on every (re)connect.
func (r *MessageRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM chat_messages WHERE booking_id=? ORDER BY created_at ASC, id ASC",
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.SenderName, &m.Body, &m.Edited, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
