package app

import (
	"context"
	"testing"

	chatdomain "realtime_chat_service/internal/chat/domain"
	memberdomain "realtime_chat_service/internal/member/domain"
	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

var (
	aliceProfile = memberdomain.PublicProfile{ID: "alice", Name: "Alice", Phone: "100"}
	bobProfile   = memberdomain.PublicProfile{ID: "bob", Name: "Bob", Phone: "200"}
)

func admitted(hub *Hub, users ...string) map[string]*Client {
	out := make(map[string]*Client, len(users))
	for _, u := range users {
		c := NewClient(u, 8)
		hub.Admit(c)
		out[u] = c
	}
	return out
}

func TestEventNotifier_Friendship(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)
	n := NewEventNotifier(hub)
	c := admitted(hub, "alice", "bob", "carol")

	n.FriendAdded(ctx, aliceProfile, bobProfile)
	assert.Equal(t, []domain.ServerEvent{domain.FriendAdded{NewFriend: aliceProfile, Message: "Alice added you as a friend"}}, pending(c["bob"]))
	assert.Equal(t, []domain.ServerEvent{domain.FriendAddedSuccess{NewFriend: bobProfile, Message: "Friend added successfully"}}, pending(c["alice"]))

	n.FriendRemoved(ctx, "alice", bobProfile)
	assert.Equal(t, []domain.ServerEvent{domain.FriendRemoved{RemovedBy: "alice", Message: "You were removed from the friend list"}}, pending(c["bob"]))
	assert.Equal(t, []domain.ServerEvent{domain.FriendRemovedSuccess{RemovedFriend: bobProfile, Message: "Friend removed successfully"}}, pending(c["alice"]))

	assert.Empty(t, pending(c["carol"]))
}

func TestEventNotifier_Messages(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)
	n := NewEventNotifier(hub)
	c := admitted(hub, "alice", "bob")

	msg := &chatdomain.Message{ID: "m1", Content: "hi", SenderID: "alice", ReceiverID: "bob"}
	assert.Equal(t, 1, n.MessageReceived(ctx, "bob", msg))
	evs := pending(c["bob"])
	if assert.Len(t, evs, 1) {
		got := evs[0].(domain.ReceiveMessage)
		assert.Equal(t, "bob", got.RoomID)
		assert.Equal(t, "m1", got.Message.ID)
	}
	assert.Empty(t, pending(c["alice"]))

	// 沒人在線
	assert.Equal(t, 0, n.MessageReceived(ctx, "nobody", msg))

	n.MessagesRead(ctx, "bob", "alice", "alice")
	want := []domain.ServerEvent{domain.MessagesRead{RoomID: "alice", ReaderID: "bob"}}
	assert.Equal(t, want, pending(c["alice"]))
	assert.Equal(t, want, pending(c["bob"]))

	// 沒有 sender 只通知自己
	n.MessagesRead(ctx, "bob", "g1", "")
	assert.Empty(t, pending(c["alice"]))
	assert.Len(t, pending(c["bob"]), 1)
}
