package app

import (
	"context"
	"errors"
	"time"

	chatapp "realtime_chat_service/internal/chat/app"
	chatdomain "realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/realtime/domain"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Dispatcher 寫入訊息並推播
type Dispatcher interface {
	Dispatch(ctx context.Context, senderID, content string, target chatdomain.Target, path string) (*chatdomain.Message, int, error)
}

// WebsocketConfig 連線參數
type WebsocketConfig struct {
	SendBuffer   int
	PingInterval time.Duration
	WriteTimeout time.Duration
}

func (c WebsocketConfig) withDefaults() WebsocketConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// WebsocketHandler websocket 連線進入點
type WebsocketHandler struct {
	hub        *Hub
	dispatcher Dispatcher
	notifier   *EventNotifier
	cfg        WebsocketConfig
}

// NewWebsocketHandler create WebsocketHandler
func NewWebsocketHandler(hub *Hub, dispatcher Dispatcher, notifier *EventNotifier, cfg WebsocketConfig) *WebsocketHandler {
	return &WebsocketHandler{
		hub:        hub,
		dispatcher: dispatcher,
		notifier:   notifier,
		cfg:        cfg.withDefaults(),
	}
}

// HandleConnection 已通過 JWTMiddleware, member id 放在 Locals
func (h *WebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	if memberID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
		conn.Close()
		return
	}

	client := NewClient(memberID, h.cfg.SendBuffer)
	h.hub.Admit(client)
	logger.Log.Info("websocket open", zap.String("userID", memberID), zap.String("conn", client.ID))

	writerDone := make(chan struct{})
	go h.writePump(conn, client, writerDone)

	defer func() {
		// 先釋放 room, writer 看到 queue 關閉後結束
		h.hub.Release(client)
		<-writerDone
		conn.Close()
		logger.Log.Info("websocket close", zap.String("userID", memberID), zap.String("conn", client.ID))
	}()

	pongWait := h.cfg.PingInterval * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	//client發出ping
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.String("userID", memberID), zap.Error(err))
			} else {
				//直接斷線 1006
				logger.Log.Error("websocket read error", zap.String("userID", memberID), zap.Error(err))
			}
			return
		}

		if mt != websocket.TextMessage {
			h.hub.Emit(client, domain.Error{Error: "unsupported frame type"})
			continue
		}
		h.handleFrame(ctx, client, message)
	}
}

// writePump 唯一會寫 conn 的 goroutine
func (h *WebsocketHandler) writePump(conn *websocket.Conn, client *Client, done chan<- struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Log.Error("write message error", zap.String("userID", client.UserID), zap.Error(err))
				// 讓 read loop 結束
				conn.Close()
				h.drain(client)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Error("ping error", zap.String("userID", client.UserID), zap.Error(err))
				conn.Close()
				h.drain(client)
				return
			}
		}
	}
}

// drain 丟棄剩下的 frame 直到 Release 關閉 queue
func (h *WebsocketHandler) drain(client *Client) {
	for range client.Send() {
	}
}

func (h *WebsocketHandler) handleFrame(ctx context.Context, client *Client, frame []byte) {
	ev, err := domain.DecodeClient(frame)
	if err != nil {
		logger.Log.Debug("bad client frame", zap.String("userID", client.UserID), zap.Error(err))
		if errors.Is(err, domain.ErrContentRequired) || errors.Is(err, chatdomain.ErrMissingTarget) {
			h.hub.Emit(client, domain.MessageError{Error: err.Error()})
			return
		}
		h.hub.Emit(client, domain.Error{Error: err.Error()})
		return
	}

	switch e := ev.(type) {
	case domain.JoinRoom:
		h.hub.Join(client, e.RoomID)
	case domain.LeaveRoom:
		h.hub.Leave(client, e.RoomID)
	case domain.SendMessage:
		target, _ := e.Target()
		if _, _, err := h.dispatcher.Dispatch(ctx, client.UserID, e.Content, target, chatapp.PathWS); err != nil {
			if errprocess.HTTPStatus(err) >= 500 {
				logger.Log.Error("send_message", zap.String("userID", client.UserID), zap.Error(err))
			}
			h.hub.Emit(client, domain.MessageError{Error: errprocess.PublicMessage(err)})
		}
	case domain.MarkMessagesRead:
		h.notifier.MessagesRead(ctx, client.UserID, e.RoomID, e.SenderID)
	}
}
