package repository

import (
	"context"
	"sort"
	"sync"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg"
)

// MemoryMessageRepository 記憶體版 MessageRepository, 給單元測試使用
type MemoryMessageRepository struct {
	mu   sync.Mutex
	msgs []domain.Message
}

// NewMemoryMessageRepository create MemoryMessageRepository
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

func (r *MemoryMessageRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (r *MemoryMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *msg
	stored.Sender, stored.Receiver, stored.Group = nil, nil, nil
	r.msgs = append(r.msgs, stored)
	return nil
}

func (r *MemoryMessageRepository) FindDirect(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	return r.filter(limit, func(m *domain.Message) bool {
		return m.GroupID == "" &&
			((m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a))
	}), nil
}

func (r *MemoryMessageRepository) FindGroup(ctx context.Context, groupID string, limit int) ([]domain.Message, error) {
	return r.filter(limit, func(m *domain.Message) bool { return m.GroupID == groupID }), nil
}

func (r *MemoryMessageRepository) LatestDirect(ctx context.Context, userID string) ([]domain.Message, error) {
	all := r.filter(0, func(m *domain.Message) bool {
		return m.ReceiverID != "" && (m.SenderID == userID || m.ReceiverID == userID)
	})
	return latestBy(all, func(m *domain.Message) string { return m.Counterpart(userID) }), nil
}

func (r *MemoryMessageRepository) LatestByGroups(ctx context.Context, groupIDs []string) ([]domain.Message, error) {
	all := r.filter(0, func(m *domain.Message) bool { return pkg.Contains(groupIDs, m.GroupID) })
	return latestBy(all, func(m *domain.Message) string { return m.GroupID }), nil
}

// filter 依時間升冪回傳符合的訊息, limit > 0 時只留最新的 limit 筆
func (r *MemoryMessageRepository) filter(limit int, match func(*domain.Message) bool) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for i := range r.msgs {
		if match(&r.msgs[i]) {
			out = append(out, r.msgs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// latestBy msgs 需依時間升冪, 回傳每個 key 最後一則, 新的在前
func latestBy(msgs []domain.Message, key func(*domain.Message) string) []domain.Message {
	latest := map[string]domain.Message{}
	for i := range msgs {
		latest[key(&msgs[i])] = msgs[i]
	}
	out := make([]domain.Message, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MemoryGroupRepository 記憶體版 GroupRepository
type MemoryGroupRepository struct {
	mu     sync.Mutex
	groups []domain.Group
}

// NewMemoryGroupRepository create MemoryGroupRepository
func NewMemoryGroupRepository(groups ...domain.Group) *MemoryGroupRepository {
	return &MemoryGroupRepository{groups: append([]domain.Group(nil), groups...)}
}

func (r *MemoryGroupRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, *group)
	return nil
}

func (r *MemoryGroupRepository) FindByID(ctx context.Context, groupID string) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.groups {
		if r.groups[i].ID == groupID {
			g := r.groups[i]
			return &g, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (r *MemoryGroupRepository) FindByMember(ctx context.Context, memberID string) ([]domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Group
	for _, g := range r.groups {
		if g.IsMember(memberID) {
			out = append(out, g)
		}
	}
	return out, nil
}
