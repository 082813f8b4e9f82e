package chatclient

import (
	"context"
	"sort"
	"sync"

	chatdomain "realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/realtime/domain"
)

// UnreadCounter 每個對話的未讀數, 只在本機
type UnreadCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewUnreadCounter create UnreadCounter
func NewUnreadCounter() *UnreadCounter {
	return &UnreadCounter{counts: make(map[string]int)}
}

// Inc +1
func (u *UnreadCounter) Inc(convID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[convID]++
	return u.counts[convID]
}

// Reset 歸零
func (u *UnreadCounter) Reset(convID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.counts, convID)
}

// Get 未讀數
func (u *UnreadCounter) Get(convID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[convID]
}

// Total 所有對話的未讀總數
func (u *UnreadCounter) Total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.counts {
		total += n
	}
	return total
}

// MessageLog 單一對話的訊息, 依 id 去重並依時間排序
// 同一則訊息可能同時從 REST 回應與 receive_message 收到
type MessageLog struct {
	mu   sync.Mutex
	ids  map[string]struct{}
	msgs []chatdomain.Message
}

// NewMessageLog history 為 REST 取得的歷史訊息
func NewMessageLog(history ...chatdomain.Message) *MessageLog {
	l := &MessageLog{ids: make(map[string]struct{})}
	for i := range history {
		l.Add(&history[i])
	}
	return l
}

// Add 已存在回傳 false
func (l *MessageLog) Add(msg *chatdomain.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[msg.ID]; ok {
		return false
	}
	l.ids[msg.ID] = struct{}{}

	// 通常是最新的一則, 從尾端找位置
	pos := sort.Search(len(l.msgs), func(i int) bool { return l.msgs[i].CreatedAt.After(msg.CreatedAt) })
	l.msgs = append(l.msgs, chatdomain.Message{})
	copy(l.msgs[pos+1:], l.msgs[pos:])
	l.msgs[pos] = *msg
	return true
}

// Messages copy
func (l *MessageLog) Messages() []chatdomain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]chatdomain.Message(nil), l.msgs...)
}

// Len 訊息數
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// Session 一個登入使用者在 client 端的狀態
type Session struct {
	SelfID string
	Chats  *Aggregator
	Unread *UnreadCounter

	mu     sync.Mutex
	logs   map[string]*MessageLog
	active string
}

// NewSession list 為 REST /chat/list/all 的結果
func NewSession(selfID string, list chatdomain.ChatList) *Session {
	return &Session{
		SelfID: selfID,
		Chats:  NewAggregator(selfID, FromChatList(list)),
		Unread: NewUnreadCounter(),
		logs:   make(map[string]*MessageLog),
	}
}

// Log 對話的訊息紀錄, 沒有時建立
func (s *Session) Log(convID string) *MessageLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[convID]
	if !ok {
		l = NewMessageLog()
		s.logs[convID] = l
	}
	return l
}

// Open 切換到對話, 清除未讀
func (s *Session) Open(convID string) {
	s.mu.Lock()
	s.active = convID
	s.mu.Unlock()
	s.Unread.Reset(convID)
}

// Active 目前開啟的對話
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AddMessage REST 送出後或收到推播時呼叫, 重複的訊息回傳 false
func (s *Session) AddMessage(msg *chatdomain.Message) bool {
	convID := msg.ConversationID(s.SelfID)
	if !s.Log(convID).Add(msg) {
		return false
	}
	s.Chats.Apply(msg)
	if msg.SenderID != s.SelfID && convID != s.Active() {
		s.Unread.Inc(convID)
	}
	return true
}

// Handle 套用一個 server event
func (s *Session) Handle(ev domain.ServerEvent) {
	switch e := ev.(type) {
	case domain.ReceiveMessage:
		if e.Message != nil {
			s.AddMessage(e.Message)
		}
	case domain.FriendAdded:
		s.Chats.Add(Conversation{Kind: chatdomain.ChatTypeDirect, ID: e.NewFriend.ID, Name: e.NewFriend.Name})
	case domain.FriendAddedSuccess:
		s.Chats.Add(Conversation{Kind: chatdomain.ChatTypeDirect, ID: e.NewFriend.ID, Name: e.NewFriend.Name})
	case domain.MessagesRead:
		if e.ReaderID == s.SelfID {
			s.Unread.Reset(e.RoomID)
		}
	}
}

// Run 持續套用 client 收到的 event, 直到連線關閉或 ctx 結束
func (s *Session) Run(ctx context.Context, events <-chan domain.ServerEvent) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Handle(ev)
		case <-ctx.Done():
			return
		}
	}
}
