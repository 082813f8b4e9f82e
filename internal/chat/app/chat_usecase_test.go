package app

import (
	"context"
	"testing"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedChats 依序送出訊息, 每則間隔一分鐘
func seedChats(t *testing.T) (*ChatUseCase, *DispatchUseCase) {
	t.Helper()
	members := testMembers()
	groups := testGroups()
	msgs := repository.NewMemoryMessageRepository()

	dispatch := NewDispatchUseCase(msgs, groups, members, nil)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatch.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return NewChatUseCase(msgs, groups, members), dispatch
}

func TestChatUseCase_ListChats(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	chats, dispatch := seedChats(t)

	send := func(from, content string, target domain.Target) {
		_, err := dispatch.Send(ctx, from, content, target)
		require.NoError(t, err)
	}
	send("alice", "hi bob", domain.Target{Kind: domain.ChatTypeDirect, ID: "bob"})
	send("carol", "hi alice", domain.Target{Kind: domain.ChatTypeDirect, ID: "alice"})
	send("bob", "hi again", domain.Target{Kind: domain.ChatTypeDirect, ID: "alice"})

	list, err := chats.ListChats(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, list.Direct, 2)
	assert.Equal(t, "bob", list.Direct[0].ID)
	assert.Equal(t, "Bob", list.Direct[0].User.Name)
	require.NotNil(t, list.Direct[0].LastMessage)
	assert.Equal(t, "hi again", list.Direct[0].LastMessage.Content)
	assert.Equal(t, "Bob", list.Direct[0].LastMessage.Sender.Name)
	assert.Equal(t, "carol", list.Direct[1].ID)

	// 沒有訊息的群組也會列出
	require.Len(t, list.Groups, 1)
	assert.Equal(t, "g1", list.Groups[0].ID)
	assert.Nil(t, list.Groups[0].LastMessage)
	assert.Len(t, list.Groups[0].Members, 2)
	assert.Equal(t, "alice", list.Groups[0].Admins[0].ID)

	send("bob", "team", domain.Target{Kind: domain.ChatTypeGroup, ID: "g1"})
	list, err = chats.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, list.Groups[0].LastMessage)
	assert.Equal(t, "team", list.Groups[0].LastMessage.Content)
	assert.Equal(t, "Team", list.Groups[0].LastMessage.Group.Name)

	empty, err := chats.ListChats(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty.Groups)
	assert.Len(t, empty.Direct, 1)
}

func TestChatUseCase_History(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	chats, dispatch := seedChats(t)

	for _, c := range []struct{ from, to, content string }{
		{"alice", "bob", "one"},
		{"bob", "alice", "two"},
		{"alice", "carol", "other"},
	} {
		_, err := dispatch.Send(ctx, c.from, c.content, domain.Target{Kind: domain.ChatTypeDirect, ID: c.to})
		require.NoError(t, err)
	}

	t.Run("direct", func(t *testing.T) {
		h, err := chats.History(ctx, "alice", "bob", "")
		require.NoError(t, err)
		assert.Equal(t, domain.ChatTypeDirect, h.Type)
		assert.Equal(t, domain.ChatInfo{ID: "bob", Name: "Bob", Phone: "200"}, h.ChatInfo)
		assert.Equal(t, 2, h.TotalMessages)
		require.Len(t, h.Messages, 2)
		assert.Equal(t, "one", h.Messages[0].Content)
		assert.Equal(t, "two", h.Messages[1].Content)
		assert.Equal(t, "Bob", h.Messages[1].Sender.Name)
		assert.Equal(t, "Alice", h.Messages[1].Receiver.Name)
	})

	t.Run("group", func(t *testing.T) {
		h, err := chats.History(ctx, "bob", "g1", domain.ChatTypeGroup)
		require.NoError(t, err)
		assert.Equal(t, "Team", h.ChatInfo.Name)
		assert.NotNil(t, h.Messages)
		assert.Zero(t, h.TotalMessages)

		_, err = chats.History(ctx, "carol", "g1", domain.ChatTypeGroup)
		assert.True(t, errprocess.Is(err, errprocess.KindForbidden))
	})

	t.Run("錯誤", func(t *testing.T) {
		_, err := chats.History(ctx, "alice", "bob", "channel")
		assert.True(t, errprocess.Is(err, errprocess.KindValidation))

		_, err = chats.History(ctx, "alice", "nobody", domain.ChatTypeDirect)
		assert.True(t, errprocess.Is(err, errprocess.KindNotFound))

		_, err = chats.History(ctx, "alice", "nope", domain.ChatTypeGroup)
		assert.True(t, errprocess.Is(err, errprocess.KindNotFound))
	})
}

func TestChatUseCase_CreateGroup(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	chats, _ := seedChats(t)

	g, err := chats.CreateGroup(ctx, "alice", " Weekend ", "plans", []string{"bob", "alice", "carol", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Weekend", g.Name)
	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Members)
	assert.Equal(t, []string{"alice"}, g.Admins)

	list, err := chats.ListChats(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, list.Groups, 1)
	assert.Equal(t, g.ID, list.Groups[0].ID)

	_, err = chats.CreateGroup(ctx, "alice", "", "", nil)
	assert.True(t, errprocess.Is(err, errprocess.KindValidation))

	_, err = chats.CreateGroup(ctx, "alice", "x", "", []string{"ghost"})
	assert.True(t, errprocess.Is(err, errprocess.KindNotFound))
}
