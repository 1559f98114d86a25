package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anyhire/anyhire-server/internal/middleware"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/service"
)

// ChatHandler exposes the REST surface of the message relay: history
// snapshots plus edit/delete with ownership enforced against the
// persisted sender. Edits and deletes made here broadcast the same
// realtime events as the socket path, to every room member.
type ChatHandler struct {
	Chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{Chat: chat}
}

type editMessageReq struct {
	Message string `json:"message"`
}
type sendMessageReq struct {
	Message string `json:"message"`
}

// History returns the booking's messages oldest first, a single
// snapshot per call (protected).
func (h *ChatHandler) History(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Chat.History(ctx, bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// Send persists a message via REST and broadcasts receive_message to
// the whole room; the HTTP caller has no socket to exclude (protected).
func (h *ChatHandler) Send(c echo.Context) error {
	bookingID := c.Param("id")
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Chat.Send(ctx, bookingID, u, req.Message, "")
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusCreated, service.ToPayload(m))
}

// Edit replaces a message body (protected, owner only).
func (h *ChatHandler) Edit(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	var req editMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Chat.Edit(ctx, id, u, req.Message, "")
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(http.StatusOK, service.ToPayload(m))
}

// Delete removes a message (protected, owner only).
func (h *ChatHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Chat.Delete(ctx, id, u, ""); err != nil {
		return chatError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func chatError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}
