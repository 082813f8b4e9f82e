package domain

import (
	"errors"
	"time"

	"realtime_chat_service/pkg/encrypt"
)

// ErrMemberNotFound 查無使用者
var ErrMemberNotFound = errors.New("member not found")

// ErrPhoneTaken 電話已被註冊
var ErrPhoneTaken = errors.New("phone already registered")

// MemberStatus 用來表示使用者狀態
type MemberStatus int

// 状态: 0=offline, 1=online, 2=ban ,3=delete
const (
	// MemberStatusOffLine 離線
	MemberStatusOffLine MemberStatus = iota
	// MemberStatusOnLine 上線
	MemberStatusOnLine
	// MemberStatusBan 封鎖
	MemberStatusBan
	// MemberStatusDelete 刪除
	MemberStatusDelete
)

// Member 用來表示使用者
// Friends 是 set, 同一個 id 不會出現兩次
type Member struct {
	ID        int64
	MemberID  string
	Name      string
	Phone     string
	Password  string
	Friends   []string
	Status    MemberStatus
	CreatedAt time.Time
}

// PublicProfile 對外可見的使用者資料
type PublicProfile struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
}

// Profile 轉成 PublicProfile
func (m *Member) Profile() PublicProfile {
	return PublicProfile{ID: m.MemberID, Name: m.Name, Phone: m.Phone}
}

// HasFriend 檢查 id 是否在好友清單中
func (m *Member) HasFriend(id string) bool {
	for _, f := range m.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}
