package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRelayChannel 所有 node 共用的 channel
const DefaultRelayChannel = "chat:relay"

// relayFrame redis 上傳送的格式
type relayFrame struct {
	Node  string           `json:"node"`
	Room  string           `json:"room"`
	Event domain.EventName `json:"event"`
	Frame json.RawMessage  `json:"frame"`
}

// DeliverFunc 收到其他 node 的 frame 時呼叫
type DeliverFunc func(room string, event domain.EventName, frame []byte) int

// RedisRelay 透過 redis pub/sub 把 broadcast 轉到其他 node
type RedisRelay struct {
	client  *redis.Client
	channel string
	nodeID  string
}

// NewRedisRelay channel 為空使用 DefaultRelayChannel, nodeID 為空時隨機產生
func NewRedisRelay(client *redis.Client, channel, nodeID string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		nodeID:  nodeID,
	}
}

// NodeID 本機 node id
func (r *RedisRelay) NodeID() string {
	return r.nodeID
}

// Publish 將 frame 發布到 relay channel
func (r *RedisRelay) Publish(ctx context.Context, room string, event domain.EventName, frame []byte) error {
	data, err := json.Marshal(relayFrame{Node: r.nodeID, Room: room, Event: event, Frame: frame})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run 訂閱 relay channel, 直到 ctx 結束
// 自己發出的 frame 已在本機送過, 直接略過
func (r *RedisRelay) Run(ctx context.Context, deliver DeliverFunc) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// 確認訂閱成功
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var f relayFrame
			if err := json.Unmarshal([]byte(m.Payload), &f); err != nil {
				logger.Log.Error("relay unmarshal", zap.String("channel", r.channel), zap.Error(err))
				continue
			}
			if f.Node == r.nodeID {
				continue
			}
			deliver(f.Room, f.Event, f.Frame)
		case <-ctx.Done():
			logger.Log.Info(fmt.Sprintf("%s , sub close", r.channel))
			return nil
		}
	}
}
