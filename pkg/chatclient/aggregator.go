package chatclient

import (
	"sort"
	"sync"

	chatdomain "realtime_chat_service/internal/chat/domain"
)

// Conversation 對話清單的一列
type Conversation struct {
	Kind        chatdomain.ChatType
	ID          string
	Name        string
	LastMessage *chatdomain.Message
}

// Key kind:id, 同時是排序的 tie-breaker
func (c Conversation) Key() string {
	return string(c.Kind) + ":" + c.ID
}

// less 有訊息的在前並依最後訊息時間新到舊, 同時間或都沒訊息時依 key
func less(a, b Conversation) bool {
	switch {
	case a.LastMessage != nil && b.LastMessage != nil:
		ta, tb := a.LastMessage.CreatedAt, b.LastMessage.CreatedAt
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
	case a.LastMessage != nil:
		return true
	case b.LastMessage != nil:
		return false
	}
	return a.Key() < b.Key()
}

// withMessage 只有不比目前舊的訊息會取代 LastMessage
func withMessage(c Conversation, msg *chatdomain.Message) Conversation {
	if c.LastMessage == nil || !msg.CreatedAt.Before(c.LastMessage.CreatedAt) {
		c.LastMessage = msg
	}
	return c
}

// FromChatList REST /chat/list/all 的結果轉成對話列
func FromChatList(list chatdomain.ChatList) []Conversation {
	out := make([]Conversation, 0, len(list.Direct)+len(list.Groups))
	for _, d := range list.Direct {
		out = append(out, Conversation{Kind: chatdomain.ChatTypeDirect, ID: d.ID, Name: d.User.Name, LastMessage: d.LastMessage})
	}
	for _, g := range list.Groups {
		out = append(out, Conversation{Kind: chatdomain.ChatTypeGroup, ID: g.ID, Name: g.Name, LastMessage: g.LastMessage})
	}
	return out
}

// Merge 完整排序, 相同 key 只保留最後訊息較新的一筆
func Merge(list []Conversation) []Conversation {
	byKey := make(map[string]int, len(list))
	out := make([]Conversation, 0, len(list))
	for _, c := range list {
		if i, ok := byKey[c.Key()]; ok {
			if c.LastMessage != nil {
				out[i] = withMessage(out[i], c.LastMessage)
			}
			continue
		}
		byKey[c.Key()] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Aggregator 依收到的訊息增量維護排序後的對話清單
type Aggregator struct {
	mu     sync.RWMutex
	selfID string
	convs  []Conversation
}

// NewAggregator selfID 用來判斷 direct 訊息屬於哪個對話
func NewAggregator(selfID string, list []Conversation) *Aggregator {
	return &Aggregator{selfID: selfID, convs: Merge(list)}
}

// Conversations 目前的清單 (copy)
func (a *Aggregator) Conversations() []Conversation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Conversation(nil), a.convs...)
}

// Apply 把訊息套到對應的對話並移到正確位置
// 不認得的群組直接略過, 不認得的 direct 對話會新增; 回傳清單是否改變
func (a *Aggregator) Apply(msg *chatdomain.Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	kind := msg.Kind()
	key := Conversation{Kind: kind, ID: msg.ConversationID(a.selfID)}.Key()
	idx := a.index(key)

	var conv Conversation
	switch {
	case idx >= 0:
		conv = a.convs[idx]
	case kind == chatdomain.ChatTypeGroup:
		return false
	default:
		conv = a.directFrom(msg)
	}

	a.promote(idx, withMessage(conv, msg))
	return true
}

// Add 新增沒有訊息的對話, 已存在時不做事
func (a *Aggregator) Add(conv Conversation) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.index(conv.Key()) >= 0 {
		return false
	}
	a.promote(-1, conv)
	return true
}

// Remove 移除對話
func (a *Aggregator) Remove(kind chatdomain.ChatType, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.index(Conversation{Kind: kind, ID: id}.Key())
	if idx < 0 {
		return false
	}
	a.convs = append(a.convs[:idx], a.convs[idx+1:]...)
	return true
}

// promote 移除 idx (若 >= 0) 後依排序插入 conv; 最新訊息會落在最前面
func (a *Aggregator) promote(idx int, conv Conversation) {
	if idx >= 0 {
		a.convs = append(a.convs[:idx], a.convs[idx+1:]...)
	}
	pos := sort.Search(len(a.convs), func(i int) bool { return less(conv, a.convs[i]) })
	a.convs = append(a.convs, Conversation{})
	copy(a.convs[pos+1:], a.convs[pos:])
	a.convs[pos] = conv
}

func (a *Aggregator) index(key string) int {
	for i, c := range a.convs {
		if c.Key() == key {
			return i
		}
	}
	return -1
}

func (a *Aggregator) directFrom(msg *chatdomain.Message) Conversation {
	id := msg.Counterpart(a.selfID)
	name := id
	if msg.SenderID == a.selfID {
		if msg.Receiver != nil {
			name = msg.Receiver.Name
		}
	} else if msg.Sender != nil {
		name = msg.Sender.Name
	}
	return Conversation{Kind: chatdomain.ChatTypeDirect, ID: id, Name: name}
}
