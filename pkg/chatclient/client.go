package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// Client websocket client
type Client struct {
	conn   *websocket.Conn
	events chan domain.ServerEvent

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error
}

// Dial 連到 wsURL (例如 ws://localhost:8080/ws), token 放在 Authorization header
func Dial(ctx context.Context, wsURL, token string) (*Client, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", wsURL, err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{
		conn:   conn,
		events: make(chan domain.ServerEvent, 64),
	}
	go c.readLoop()
	return c, nil
}

// Events 收到的 server event, 連線結束時關閉
func (c *Client) Events() <-chan domain.ServerEvent {
	return c.events
}

// Err 連線結束的原因
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
			}
			return
		}
		ev, err := domain.DecodeServer(frame)
		if err != nil {
			logger.Log.Warn("chatclient: skip frame", zap.Error(err))
			continue
		}
		c.events <- ev
	}
}

func (c *Client) emit(ev domain.ClientEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	frame, err := domain.EncodeClient(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// JoinRoom join_room
func (c *Client) JoinRoom(room string) error {
	return c.emit(domain.JoinRoom{RoomID: room})
}

// LeaveRoom leave_room
func (c *Client) LeaveRoom(room string) error {
	return c.emit(domain.LeaveRoom{RoomID: room})
}

// SendMessage send_message
func (c *Client) SendMessage(msg domain.SendMessage) error {
	return c.emit(msg)
}

// MarkRead mark_messages_read
func (c *Client) MarkRead(room, senderID string) error {
	return c.emit(domain.MarkMessagesRead{RoomID: room, SenderID: senderID})
}

// Close 送出 close frame 並關閉連線
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
