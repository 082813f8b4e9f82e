package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	memberdomain "realtime_chat_service/internal/member/domain"
	"realtime_chat_service/internal/realtime/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRelay Mock Relay
type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Publish(ctx context.Context, room string, event domain.EventName, frame []byte) error {
	return m.Called(ctx, room, event, frame).Error(0)
}

// pending 取出 queue 內所有 frame, 不阻塞
func pending(c *Client) []domain.ServerEvent {
	var out []domain.ServerEvent
	for {
		select {
		case frame, ok := <-c.Send():
			if !ok {
				return out
			}
			ev, err := domain.DecodeServer(frame)
			if err != nil {
				panic(err)
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func removed(by string) domain.FriendRemoved {
	return domain.FriendRemoved{RemovedBy: by, Message: "x"}
}

func TestHub_AdmitJoinLeave(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)

	alice := NewClient("alice", 8)
	hub.Admit(alice)

	t.Run("admit 自動加入個人 room", func(t *testing.T) {
		assert.Equal(t, []string{"alice"}, hub.Rooms(alice))
		assert.Equal(t, 1, hub.Broadcast(ctx, "alice", removed("bob")))
		assert.Equal(t, []domain.ServerEvent{removed("bob")}, pending(alice))
	})

	t.Run("join 與 leave", func(t *testing.T) {
		require.True(t, hub.Join(alice, "g1"))
		rooms := hub.Rooms(alice)
		sort.Strings(rooms)
		assert.Equal(t, []string{"alice", "g1"}, rooms)
		assert.Equal(t, 1, hub.Members("g1"))

		hub.Leave(alice, "g1")
		assert.Equal(t, 0, hub.Members("g1"))
		assert.Equal(t, 0, hub.Broadcast(ctx, "g1", removed("bob")))
		assert.Empty(t, pending(alice))

		// 不在 room 內 leave 不做事
		hub.Leave(alice, "g1")
		assert.Equal(t, []string{"alice"}, hub.Rooms(alice))
	})

	t.Run("release 之後不再收到任何 event", func(t *testing.T) {
		require.True(t, hub.Join(alice, "g1"))
		hub.Release(alice)

		assert.Equal(t, 0, hub.Connections())
		assert.Equal(t, 0, hub.Members("alice"))
		assert.Equal(t, 0, hub.Members("g1"))
		assert.Equal(t, 0, hub.Broadcast(ctx, "g1", removed("bob")))
		assert.False(t, hub.Join(alice, "g2"))
		assert.False(t, hub.Emit(alice, domain.Error{Error: "x"}))

		_, ok := <-alice.Send()
		assert.False(t, ok, "queue should be closed")

		// 重複 release
		hub.Release(alice)
	})
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)

	alice1 := NewClient("alice", 8)
	alice2 := NewClient("alice", 8)
	bob := NewClient("bob", 8)
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Admit(c)
	}

	// 同一個使用者的兩條連線都會收到
	assert.Equal(t, 2, hub.Broadcast(ctx, "alice", removed("bob")))
	assert.Len(t, pending(alice1), 1)
	assert.Len(t, pending(alice2), 1)
	assert.Empty(t, pending(bob))

	assert.True(t, hub.Emit(alice1, domain.MessageError{Error: "nope"}))
	assert.Equal(t, []domain.ServerEvent{domain.MessageError{Error: "nope"}}, pending(alice1))
	assert.Empty(t, pending(alice2))
}

func TestHub_SlowConsumerDropped(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)

	slow := NewClient("slow", 2)
	fast := NewClient("fast", 8)
	hub.Admit(slow)
	hub.Admit(fast)
	hub.Join(slow, "g1")
	hub.Join(fast, "g1")

	counts := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		counts = append(counts, hub.Broadcast(ctx, "g1", removed(fmt.Sprint(i))))
	}

	assert.Equal(t, []int{2, 2, 1, 1}, counts)
	assert.Len(t, pending(slow), 2)
	assert.Equal(t, []domain.ServerEvent{removed("0"), removed("1"), removed("2"), removed("3")}, pending(fast))
}

func TestHub_Relay(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	relay := new(MockRelay)
	relay.On("Publish", ctx, "bob", domain.EventFriendAdded, mock.Anything).Return(nil).Once()
	hub := NewHub(relay)

	ev := domain.FriendAdded{NewFriend: memberdomain.PublicProfile{ID: "alice", Name: "Alice"}, Message: "Alice added you as a friend"}
	assert.Equal(t, 0, hub.Broadcast(ctx, "bob", ev))
	relay.AssertExpectations(t)

	// relay 收到的 frame 送到本機連線
	bob := NewClient("bob", 4)
	hub.Admit(bob)
	frame, err := domain.Encode(ev)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.DeliverLocal("bob", ev.EventName(), frame))
	assert.Equal(t, []domain.ServerEvent{ev}, pending(bob))
}

func TestHub_Concurrent(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	hub := NewHub(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewClient(fmt.Sprintf("u%d", i), 4)
			hub.Admit(c)
			hub.Join(c, "lobby")
			hub.Broadcast(ctx, "lobby", removed("x"))
			hub.Leave(c, "lobby")
			hub.Release(c)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Connections())
	assert.Equal(t, 0, hub.Members("lobby"))
}
