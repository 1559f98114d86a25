package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second
	pongDeadline  = 60 * time.Second
	pingInterval  = 45 * time.Second // must be shorter than pongDeadline
	maxFrameSize  = 16 * 1024
)

// Client is one authenticated socket connection. Frames queued on Send
// are written by a single writer goroutine; the hub closes Send on
// unregister which terminates the writer.
type Client struct {
	ID     string // socket identifier, unique per connection
	UserID uint64
	Name   string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(conn *websocket.Conn, userID uint64, name, socketID string) *Client {
	return &Client{
		ID:     socketID,
		UserID: userID,
		Name:   name,
		Conn:   conn,
		Send:   make(chan []byte, 64),
	}
}

// Emit queues an event for this connection only. Used for error frames
// and direct acknowledgements; room traffic goes through the hub.
func (c *Client) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.Send <- frame:
	default:
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. It exits when Send is closed or a write
// fails, closing the socket either way.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames until the connection drops and hands each parsed
// envelope to the dispatch callback. Malformed frames are skipped.
func (c *Client) readPump(dispatch func(*Client, Envelope)) {
	c.Conn.SetReadLimit(maxFrameSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongDeadline))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongDeadline))
	})
	for {
		mt, raw, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			continue
		}
		dispatch(c, env)
	}
}
