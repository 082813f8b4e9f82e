package chatclient

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	chatdomain "realtime_chat_service/internal/chat/domain"
	memberdomain "realtime_chat_service/internal/member/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return base.Add(time.Duration(min) * time.Minute)
}

func direct(id, from, to string, min int) *chatdomain.Message {
	return &chatdomain.Message{ID: id, SenderID: from, ReceiverID: to, CreatedAt: at(min)}
}

func group(id, from, groupID string, min int) *chatdomain.Message {
	return &chatdomain.Message{ID: id, SenderID: from, GroupID: groupID, CreatedAt: at(min)}
}

func keys(convs []Conversation) []string {
	out := make([]string, 0, len(convs))
	for _, c := range convs {
		out = append(out, c.Key())
	}
	return out
}

func TestMerge(t *testing.T) {
	list := []Conversation{
		{Kind: chatdomain.ChatTypeGroup, ID: "g2"},
		{Kind: chatdomain.ChatTypeDirect, ID: "bob", LastMessage: direct("m1", "bob", "me", 1)},
		{Kind: chatdomain.ChatTypeGroup, ID: "g1", LastMessage: group("m2", "bob", "g1", 5)},
		{Kind: chatdomain.ChatTypeDirect, ID: "carol"},
		{Kind: chatdomain.ChatTypeDirect, ID: "dave", LastMessage: direct("m3", "me", "dave", 5)},
	}

	got := Merge(list)

	// 同時間依 key, 沒訊息的在最後也依 key
	assert.Equal(t, []string{"direct:dave", "group:g1", "direct:bob", "direct:carol", "group:g2"}, keys(got))

	t.Run("重複的 key 保留較新的訊息", func(t *testing.T) {
		got := Merge([]Conversation{
			{Kind: chatdomain.ChatTypeDirect, ID: "bob", LastMessage: direct("old", "bob", "me", 1)},
			{Kind: chatdomain.ChatTypeDirect, ID: "bob", LastMessage: direct("new", "bob", "me", 3)},
			{Kind: chatdomain.ChatTypeDirect, ID: "bob"},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "new", got[0].LastMessage.ID)
	})
}

func TestAggregator_Apply(t *testing.T) {
	agg := NewAggregator("me", []Conversation{
		{Kind: chatdomain.ChatTypeDirect, ID: "bob", Name: "Bob", LastMessage: direct("m1", "bob", "me", 1)},
		{Kind: chatdomain.ChatTypeGroup, ID: "g1", Name: "Team", LastMessage: group("m2", "bob", "g1", 2)},
		{Kind: chatdomain.ChatTypeDirect, ID: "carol", Name: "Carol"},
	})
	assert.Equal(t, []string{"group:g1", "direct:bob", "direct:carol"}, keys(agg.Conversations()))

	t.Run("新訊息移到最前面", func(t *testing.T) {
		require.True(t, agg.Apply(direct("m3", "me", "carol", 3)))
		convs := agg.Conversations()
		assert.Equal(t, []string{"direct:carol", "group:g1", "direct:bob"}, keys(convs))
		assert.Equal(t, "m3", convs[0].LastMessage.ID)
		assert.Equal(t, "Carol", convs[0].Name)
	})

	t.Run("不認得的群組略過", func(t *testing.T) {
		assert.False(t, agg.Apply(group("m4", "bob", "g9", 4)))
		assert.Len(t, agg.Conversations(), 3)
	})

	t.Run("不認得的 direct 對話會新增", func(t *testing.T) {
		msg := direct("m5", "dave", "me", 5)
		msg.Sender = &memberdomain.PublicProfile{ID: "dave", Name: "Dave"}
		require.True(t, agg.Apply(msg))
		convs := agg.Conversations()
		assert.Equal(t, "direct:dave", convs[0].Key())
		assert.Equal(t, "Dave", convs[0].Name)
	})

	t.Run("較舊的訊息不會取代最後訊息", func(t *testing.T) {
		require.True(t, agg.Apply(direct("old", "bob", "me", 0)))
		for _, c := range agg.Conversations() {
			if c.ID == "bob" {
				assert.Equal(t, "m1", c.LastMessage.ID)
			}
		}
	})

	t.Run("add 與 remove", func(t *testing.T) {
		assert.True(t, agg.Add(Conversation{Kind: chatdomain.ChatTypeDirect, ID: "erin", Name: "Erin"}))
		assert.False(t, agg.Add(Conversation{Kind: chatdomain.ChatTypeDirect, ID: "erin"}))
		convs := agg.Conversations()
		assert.Equal(t, "direct:erin", convs[len(convs)-1].Key())

		assert.True(t, agg.Remove(chatdomain.ChatTypeDirect, "erin"))
		assert.False(t, agg.Remove(chatdomain.ChatTypeDirect, "erin"))
	})
}

// 增量 Apply 的結果必須和把訊息套進 snapshot 後重新 Merge 相同
func TestAggregator_ApplyMatchesMerge(t *testing.T) {
	rng := rand.New(rand.NewSource(20250301))
	peers := []string{"a", "b", "c", "d", "e"}
	groups := []string{"g1", "g2", "g3"}

	for round := 0; round < 200; round++ {
		var initial []Conversation
		for _, p := range peers[:rng.Intn(len(peers))+1] {
			c := Conversation{Kind: chatdomain.ChatTypeDirect, ID: p}
			if rng.Intn(3) > 0 {
				c.LastMessage = direct(fmt.Sprintf("i-%s", p), p, "me", rng.Intn(10))
			}
			initial = append(initial, c)
		}
		for _, g := range groups[:rng.Intn(len(groups))] {
			c := Conversation{Kind: chatdomain.ChatTypeGroup, ID: g}
			if rng.Intn(2) == 0 {
				c.LastMessage = group(fmt.Sprintf("i-%s", g), "a", g, rng.Intn(10))
			}
			initial = append(initial, c)
		}

		agg := NewAggregator("me", initial)
		for step := 0; step < 10; step++ {
			var msg *chatdomain.Message
			id := fmt.Sprintf("r%d-s%d", round, step)
			if rng.Intn(2) == 0 {
				msg = group(id, "a", groups[rng.Intn(len(groups))], rng.Intn(15))
			} else if rng.Intn(2) == 0 {
				msg = direct(id, peers[rng.Intn(len(peers))], "me", rng.Intn(15))
			} else {
				msg = direct(id, "me", peers[rng.Intn(len(peers))], rng.Intn(15))
			}

			snapshot := agg.Conversations()
			agg.Apply(msg)

			assert.Equal(t, keys(applyAndMerge("me", snapshot, msg)), keys(agg.Conversations()), "round %d step %d", round, step)
		}
	}
}

func applyAndMerge(self string, snapshot []Conversation, msg *chatdomain.Message) []Conversation {
	key := Conversation{Kind: msg.Kind(), ID: msg.ConversationID(self)}.Key()
	out := append([]Conversation(nil), snapshot...)
	found := false
	for i, c := range out {
		if c.Key() == key {
			out[i] = withMessage(c, msg)
			found = true
		}
	}
	if !found && msg.Kind() == chatdomain.ChatTypeDirect {
		out = append(out, Conversation{Kind: chatdomain.ChatTypeDirect, ID: msg.ConversationID(self), LastMessage: msg})
	}
	return Merge(out)
}
