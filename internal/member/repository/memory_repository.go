package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/pkg"
)

// MemoryMemberRepository 記憶體版 MemberRepository, 給單元測試與本地 demo 使用
// 每個方法都在同一把鎖下完成, 與 SQL 的單列原子更新語意相同
type MemoryMemberRepository struct {
	mu      sync.Mutex
	seq     int64
	members map[string]*domain.Member
}

// NewMemoryMemberRepository create MemoryMemberRepository
func NewMemoryMemberRepository(members ...domain.Member) *MemoryMemberRepository {
	r := &MemoryMemberRepository{members: map[string]*domain.Member{}}
	for _, m := range members {
		m := m
		_ = r.CreateUser(context.Background(), &m)
	}
	return r
}

func (r *MemoryMemberRepository) Migrate(ctx context.Context) error { return nil }

func (r *MemoryMemberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if member.Phone != "" {
		for _, m := range r.members {
			if m.Phone == member.Phone && m.MemberID != member.MemberID {
				return domain.ErrPhoneTaken
			}
		}
	}
	r.seq++
	member.ID = r.seq
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	r.members[member.MemberID] = clone(member)
	return nil
}

func (r *MemoryMemberRepository) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[member.MemberID]; ok {
		m.Status = member.Status
	}
	return nil
}

func (r *MemoryMemberRepository) FindByMemberID(ctx context.Context, memberID string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memberID]; ok {
		return clone(m), nil
	}
	return nil, domain.ErrMemberNotFound
}

func (r *MemoryMemberRepository) FindByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Phone == phone {
			return clone(m), nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *MemoryMemberRepository) FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Member
	for _, id := range memberIDs {
		if m, ok := r.members[id]; ok {
			out = append(out, *clone(m))
		}
	}
	return out, nil
}

func (r *MemoryMemberRepository) FindReferencing(ctx context.Context, memberID string) ([]domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Member
	for _, m := range r.members {
		if pkg.Contains(m.Friends, memberID) {
			out = append(out, *clone(m))
		}
	}
	// 與 SQL 版一致, 依 id 排序
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryMemberRepository) AppendFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok || pkg.Contains(m.Friends, friendID) {
		return false, nil
	}
	m.Friends = append(m.Friends, friendID)
	return true, nil
}

func (r *MemoryMemberRepository) RemoveFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok || !pkg.Contains(m.Friends, friendID) {
		return false, nil
	}
	m.Friends = pkg.Remove(m.Friends, friendID)
	return true, nil
}

func clone(m *domain.Member) *domain.Member {
	c := *m
	c.Friends = append([]string{}, m.Friends...)
	return &c
}
