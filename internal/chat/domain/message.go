package domain

import (
	"errors"
	"time"

	memberdomain "realtime_chat_service/internal/member/domain"
)

// ErrMissingTarget 沒有 groupId / toUserId / roomId 可以決定收件者
var ErrMissingTarget = errors.New("message target required")

// ChatType 對話種類
type ChatType string

const (
	// ChatTypeDirect 1對1
	ChatTypeDirect ChatType = "direct"
	// ChatTypeGroup 群組
	ChatTypeGroup ChatType = "group"
)

// Valid check chat type
func (t ChatType) Valid() bool {
	return t == ChatTypeDirect || t == ChatTypeGroup
}

// Message 一則聊天訊息, 建立後不再修改
// ReceiverID 與 GroupID 只會有一個有值
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	Content    string    `bson:"content" json:"content"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id,omitempty" json:"receiverId,omitempty"`
	GroupID    string    `bson:"group_id,omitempty" json:"groupId,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`

	// 讀取時填入, 不存 DB
	Sender   *memberdomain.PublicProfile `bson:"-" json:"sender,omitempty"`
	Receiver *memberdomain.PublicProfile `bson:"-" json:"receiver,omitempty"`
	Group    *GroupRef                   `bson:"-" json:"group,omitempty"`
}

// Kind message belongs to a direct or a group chat
func (m *Message) Kind() ChatType {
	if m.GroupID != "" {
		return ChatTypeGroup
	}
	return ChatTypeDirect
}

// Counterpart 對 userID 而言, 這則 direct 訊息的另一方
func (m *Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationID 對 userID 而言這則訊息屬於哪個對話: group id 或對方的 id
func (m *Message) ConversationID(userID string) string {
	if m.GroupID != "" {
		return m.GroupID
	}
	return m.Counterpart(userID)
}

// Target 已決定的收件對象, Room 是要廣播的 room
type Target struct {
	Kind ChatType
	ID   string
	Room string
}

// ResolveTarget 依序採用 groupID, toUserID, 最後把 roomID 當成收件者
// Room 優先使用 client 宣告的 roomID
func ResolveTarget(groupID, toUserID, roomID string) (Target, error) {
	var t Target
	switch {
	case groupID != "":
		t = Target{Kind: ChatTypeGroup, ID: groupID}
	case toUserID != "":
		t = Target{Kind: ChatTypeDirect, ID: toUserID}
	case roomID != "":
		t = Target{Kind: ChatTypeDirect, ID: roomID}
	default:
		return Target{}, ErrMissingTarget
	}

	t.Room = roomID
	if t.Room == "" {
		t.Room = t.ID
	}
	return t, nil
}
