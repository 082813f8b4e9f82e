package app

import (
	"context"
	"sync"

	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSendBuffer 每條連線 outbound queue 的大小
const DefaultSendBuffer = 64

// Relay 把 broadcast 轉送到其他 node
type Relay interface {
	Publish(ctx context.Context, room string, event domain.EventName, frame []byte) error
}

// Client 一條已驗證的連線, UserID 在連線期間不變
type Client struct {
	ID     string
	UserID string
	send   chan []byte
	closed bool // hub.mu 保護
}

// NewClient buffer <= 0 使用 DefaultSendBuffer
func NewClient(userID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, buffer),
	}
}

// Send outbound queue, Release 後會被關閉
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub room -> clients 與 client -> rooms 的雙向索引
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
	relay   Relay
}

// NewHub relay 可為 nil (單機)
func NewHub(relay Relay) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		relay:   relay,
	}
}

// Admit 註冊連線並加入個人 room
func (h *Hub) Admit(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = make(map[string]struct{})
	h.join(c, c.UserID)

	metrics.ConnectionsActive.Set(float64(len(h.clients)))
	logger.Log.Debug("hub admit", zap.String("userID", c.UserID), zap.String("conn", c.ID))
}

// Join 加入 room, 連線未註冊或已釋放時回傳 false
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	h.join(c, room)
	return true
}

func (h *Hub) join(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.clients[c][room] = struct{}{}
	metrics.RoomsActive.Set(float64(len(h.rooms)))
}

// Leave 不在 room 內時不做事
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	delete(rooms, room)
	h.leave(c, room)
}

func (h *Hub) leave(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	metrics.RoomsActive.Set(float64(len(h.rooms)))
}

// Release 移除連線的所有 room 並關閉 outbound queue
func (h *Hub) Release(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	for room := range rooms {
		h.leave(c, room)
	}
	delete(h.clients, c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}

	metrics.ConnectionsActive.Set(float64(len(h.clients)))
	logger.Log.Debug("hub release", zap.String("userID", c.UserID), zap.String("conn", c.ID))
}

// Broadcast 送給 room 內所有本機連線, 有 relay 時一併轉送
// 回傳本機成功排入 queue 的連線數
func (h *Hub) Broadcast(ctx context.Context, room string, ev domain.ServerEvent) int {
	frame, err := domain.Encode(ev)
	if err != nil {
		logger.Log.Error("hub encode", zap.String("event", string(ev.EventName())), zap.Error(err))
		return 0
	}

	n := h.DeliverLocal(room, ev.EventName(), frame)

	if h.relay != nil {
		if err := h.relay.Publish(ctx, room, ev.EventName(), frame); err != nil {
			logger.Log.Error("hub relay publish", zap.String("room", room), zap.Error(err))
		}
	} else if n == 0 {
		metrics.EventsDropped.WithLabelValues(string(ev.EventName()), "offline").Inc()
	}
	return n
}

// DeliverLocal 只送本機連線, relay 收到的 frame 也從這裡進來
func (h *Hub) DeliverLocal(room string, event domain.EventName, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.rooms[room] {
		if h.enqueue(c, event, frame) {
			n++
		}
	}
	return n
}

// Emit 只送給單一連線
func (h *Hub) Emit(c *Client, ev domain.ServerEvent) bool {
	frame, err := domain.Encode(ev)
	if err != nil {
		logger.Log.Error("hub encode", zap.String("event", string(ev.EventName())), zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return h.enqueue(c, ev.EventName(), frame)
}

// enqueue 不阻塞, queue 滿了就丟棄, 呼叫端需持有 read lock
func (h *Hub) enqueue(c *Client, event domain.EventName, frame []byte) bool {
	select {
	case c.send <- frame:
		metrics.EventsDelivered.WithLabelValues(string(event)).Inc()
		return true
	default:
		metrics.EventsDropped.WithLabelValues(string(event), "queue_full").Inc()
		logger.Log.Warn("hub queue full, frame dropped",
			zap.String("userID", c.UserID),
			zap.String("conn", c.ID),
			zap.String("event", string(event)))
		return false
	}
}

// Rooms 連線目前所在的 rooms
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.clients[c]))
	for room := range h.clients[c] {
		out = append(out, room)
	}
	return out
}

// Members room 內的本機連線數
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Connections 本機連線數
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
