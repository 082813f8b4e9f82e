package app

import (
	"context"
	"fmt"

	chatdomain "realtime_chat_service/internal/chat/domain"
	memberdomain "realtime_chat_service/internal/member/domain"
	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Broadcaster 推送 event 到 room
type Broadcaster interface {
	Broadcast(ctx context.Context, room string, ev domain.ServerEvent) int
}

// EventNotifier 把好友與訊息的變化轉成 websocket event
// 沒有連線的人直接略過, 上線後由 client 自行重抓
type EventNotifier struct {
	hub Broadcaster
}

// NewEventNotifier create EventNotifier
func NewEventNotifier(hub Broadcaster) *EventNotifier {
	return &EventNotifier{hub: hub}
}

// FriendAdded 通知雙方
func (n *EventNotifier) FriendAdded(ctx context.Context, requester, friend memberdomain.PublicProfile) {
	n.hub.Broadcast(ctx, friend.ID, domain.FriendAdded{
		NewFriend: requester,
		Message:   fmt.Sprintf("%s added you as a friend", requester.Name),
	})
	n.hub.Broadcast(ctx, requester.ID, domain.FriendAddedSuccess{
		NewFriend: friend,
		Message:   "Friend added successfully",
	})
}

// FriendRemoved 通知雙方
func (n *EventNotifier) FriendRemoved(ctx context.Context, requesterID string, removed memberdomain.PublicProfile) {
	n.hub.Broadcast(ctx, removed.ID, domain.FriendRemoved{
		RemovedBy: requesterID,
		Message:   "You were removed from the friend list",
	})
	n.hub.Broadcast(ctx, requesterID, domain.FriendRemovedSuccess{
		RemovedFriend: removed,
		Message:       "Friend removed successfully",
	})
}

// MessageReceived 新訊息推到 room
func (n *EventNotifier) MessageReceived(ctx context.Context, room string, msg *chatdomain.Message) int {
	delivered := n.hub.Broadcast(ctx, room, domain.ReceiveMessage{Message: msg, RoomID: room})
	logger.Log.Debug("receive_message",
		zap.String("room", room),
		zap.String("messageID", msg.ID),
		zap.Int("delivered", delivered))
	return delivered
}

// MessagesRead 通知 sender 與 reader 自己的其他連線
func (n *EventNotifier) MessagesRead(ctx context.Context, readerID, roomID, senderID string) {
	ev := domain.MessagesRead{RoomID: roomID, ReaderID: readerID}
	if senderID != "" && senderID != readerID {
		n.hub.Broadcast(ctx, senderID, ev)
	}
	n.hub.Broadcast(ctx, readerID, ev)
}
