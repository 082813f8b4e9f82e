package domain

import (
	"fmt"
	"time"
)

// EdgeOp 好友關係的變更種類
type EdgeOp string

const (
	// OpAdd 建立好友關係
	OpAdd EdgeOp = "add"
	// OpRemove 解除好友關係
	OpRemove EdgeOp = "remove"
)

// EdgeOutcome applyEdge 的結果
type EdgeOutcome int

const (
	// EdgeApplied 兩邊都寫入 (或本來就是目標狀態)
	EdgeApplied EdgeOutcome = iota
	// EdgeFailed 兩邊都沒有寫入
	EdgeFailed
	// EdgePartial 只有一邊寫入, 需要 reconcile
	EdgePartial
)

func (o EdgeOutcome) String() string {
	switch o {
	case EdgeApplied:
		return "applied"
	case EdgeFailed:
		return "failed"
	case EdgePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// EdgeResult 一次雙邊寫入的結果
// Partial 時 Pending 指出還沒寫入的那一邊
type EdgeResult struct {
	Outcome EdgeOutcome
	Op      EdgeOp
	Pending *EdgeSide
	Err     error
}

// EdgeSide 一邊的寫入: 在 UserID 的清單中加入/移除 FriendID
type EdgeSide struct {
	UserID   string
	FriendID string
}

// PairKey 無向的一對使用者, 順序無關
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("friendship:%s:%s", a, b)
}

// TaskStatus reconcile task 狀態
type TaskStatus string

const (
	// TaskPending 等待處理
	TaskPending TaskStatus = "pending"
	// TaskResolved 已補寫完成
	TaskResolved TaskStatus = "resolved"
	// TaskFailed 超過重試次數
	TaskFailed TaskStatus = "failed"
)

// ReconcileTask 記錄一個只寫了一半的好友關係, 由 worker 補上缺少的一邊
type ReconcileTask struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PairKey   string     `gorm:"index;size:160" json:"pairKey"`
	Op        EdgeOp     `gorm:"size:16" json:"op"`
	UserID    string     `gorm:"size:64" json:"userId"`
	FriendID  string     `gorm:"size:64" json:"friendId"`
	Status    TaskStatus `gorm:"index;size:16" json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"lastError"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// RelationEvent 寫到 event stream 的好友關係變更
type RelationEvent struct {
	Op          EdgeOp    `json:"op"`
	RequesterID string    `json:"requesterId"`
	TargetID    string    `json:"targetId"`
	Outcome     string    `json:"outcome"`
	OccurredAt  time.Time `json:"occurredAt"`
}
