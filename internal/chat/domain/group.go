package domain

import (
	"errors"
	"time"

	memberdomain "realtime_chat_service/internal/member/domain"
)

// ErrGroupNotFound 查無群組
var ErrGroupNotFound = errors.New("group not found")

// Group 群組聊天室, 第一位成員是 admin
type Group struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Members     []string  `bson:"members" json:"members"`
	Admins      []string  `bson:"admins,omitempty" json:"admins,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// IsMember check member in group
func (g *Group) IsMember(memberID string) bool {
	for _, m := range g.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// Ref 訊息中帶的群組資訊
func (g *Group) Ref() *GroupRef {
	return &GroupRef{ID: g.ID, Name: g.Name, Description: g.Description}
}

// GroupRef message.group 欄位
type GroupRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DirectChat 聊天列表中的 1對1 對話
type DirectChat struct {
	ID          string                     `json:"id"`
	Type        ChatType                   `json:"type"`
	User        memberdomain.PublicProfile `json:"user"`
	LastMessage *Message                   `json:"lastMessage,omitempty"`
}

// GroupChat 聊天列表中的群組
type GroupChat struct {
	ID          string                       `json:"id"`
	Type        ChatType                     `json:"type"`
	Name        string                       `json:"name"`
	Description string                       `json:"description,omitempty"`
	Members     []memberdomain.PublicProfile `json:"members"`
	Admins      []memberdomain.PublicProfile `json:"admins"`
	LastMessage *Message                     `json:"lastMessage,omitempty"`
}

// ChatList GET /chat/list/all
type ChatList struct {
	Direct []DirectChat `json:"direct"`
	Groups []GroupChat  `json:"groups"`
}

// ChatInfo 對話標題資訊, direct 帶 phone, group 帶 description
type ChatInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChatHistory GET /chat/:chatId
type ChatHistory struct {
	ChatInfo      ChatInfo  `json:"chatInfo"`
	Messages      []Message `json:"messages"`
	Type          ChatType  `json:"type"`
	TotalMessages int       `json:"totalMessages"`
}
