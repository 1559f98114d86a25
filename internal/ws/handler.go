// Package ws implements the realtime presence and room layer: socket
// handshake authentication, the booking-room registry, and dispatch of
// chat events into the relay service.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/service"
	"github.com/anyhire/anyhire-server/internal/utils"
)

// UserLoader resolves a verified token subject into a live user record.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Handler upgrades HTTP requests to socket connections and runs the
// per-connection event loop.
type Handler struct {
	Secret string
	Users  UserLoader
	Hub    *Hub
	Chat   *service.ChatService

	upgrader websocket.Upgrader
}

func NewHandler(secret string, users UserLoader, hub *Hub, chat *service.ChatService) *Handler {
	return &Handler{
		Secret: secret,
		Users:  users,
		Hub:    hub,
		Chat:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin browsers are expected; the handshake token is
			// the access control, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The handshake must carry the access token as a
// "Bearer <token>" string, either in the `token` query parameter or the
// Authorization header. No anonymous connections are admitted: an auth
// failure is answered with a single error frame and an immediate close.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // upgrader already wrote the HTTP error
	}

	raw := c.QueryParam("token")
	if raw == "" {
		raw = c.Request().Header.Get("Authorization")
	}
	u, err := h.authenticate(c.Request().Context(), raw)
	if err != nil {
		closeWithError(conn, err.Error())
		return nil
	}

	client := NewClient(conn, u.ID, u.Name, uuid.New().String())
	h.Hub.Register(client)
	go client.writePump()
	client.readPump(h.dispatch) // blocks until the connection drops
	h.Hub.Unregister(client)
	return nil
}

func (h *Handler) authenticate(ctx context.Context, bearer string) (model.User, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(bearer, prefix) {
		return model.User{}, errors.New("missing bearer token")
	}
	userID, err := utils.VerifyToken(h.Secret, strings.TrimPrefix(bearer, prefix))
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return model.User{}, errors.New("token expired")
		}
		return model.User{}, errors.New("invalid token")
	}
	lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(lctx, userID)
	if err != nil {
		return model.User{}, errors.New("invalid token")
	}
	return u, nil
}

func closeWithError(conn *websocket.Conn, msg string) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	frame, _ := json.Marshal(Envelope{Event: "error", Data: data})
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_ = conn.WriteMessage(websocket.TextMessage, frame)
	_ = conn.Close()
}

// ----- inbound event payloads -----

type roomReq struct {
	BookingID string `json:"bookingId"`
}
type sendReq struct {
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
}
type editReq struct {
	MessageID uint64 `json:"messageId"`
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
}
type deleteReq struct {
	MessageID uint64 `json:"messageId"`
	BookingID string `json:"bookingId"`
}
type typingReq struct {
	BookingID string `json:"bookingId"`
	IsTyping  bool   `json:"isTyping"`
}

// dispatch routes one inbound envelope. Joining a room is granted to any
// authenticated connection that names a booking id; booking
// participation is not checked here. Unknown events are ignored.
func (h *Handler) dispatch(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := model.User{ID: c.UserID, Name: c.Name}

	switch env.Event {
	case "join_booking":
		var req roomReq
		if json.Unmarshal(env.Data, &req) != nil || req.BookingID == "" {
			c.Emit("error", map[string]string{"error": "bookingId required"})
			return
		}
		h.Hub.Join(c.ID, req.BookingID)

	case "leave_booking":
		var req roomReq
		if json.Unmarshal(env.Data, &req) != nil || req.BookingID == "" {
			return
		}
		h.Hub.Leave(c.ID, req.BookingID)

	case "send_message":
		var req sendReq
		if json.Unmarshal(env.Data, &req) != nil {
			c.Emit("error", map[string]string{"error": "malformed payload"})
			return
		}
		if _, err := h.Chat.Send(ctx, req.BookingID, sender, req.Message, c.ID); err != nil {
			c.Emit("error", map[string]string{"error": chatErrMessage(err)})
		}

	case "edit_message":
		var req editReq
		if json.Unmarshal(env.Data, &req) != nil {
			c.Emit("error", map[string]string{"error": "malformed payload"})
			return
		}
		if _, err := h.Chat.Edit(ctx, req.MessageID, sender, req.Message, c.ID); err != nil {
			c.Emit("error", map[string]string{"error": chatErrMessage(err)})
		}

	case "delete_message":
		var req deleteReq
		if json.Unmarshal(env.Data, &req) != nil {
			c.Emit("error", map[string]string{"error": "malformed payload"})
			return
		}
		if _, err := h.Chat.Delete(ctx, req.MessageID, sender, c.ID); err != nil {
			c.Emit("error", map[string]string{"error": chatErrMessage(err)})
		}

	case "typing":
		var req typingReq
		if json.Unmarshal(env.Data, &req) != nil {
			return
		}
		h.Chat.Typing(req.BookingID, sender, req.IsTyping, c.ID)
	}
}

func chatErrMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return "message required"
	case errors.Is(err, repository.ErrForbidden):
		return "not allowed"
	case errors.Is(err, repository.ErrNotFound):
		return "message not found"
	default:
		return "server error"
	}
}
