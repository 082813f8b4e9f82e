package app

import (
	"context"
	"errors"
	"sync"
	"time"

	memberdomain "realtime_chat_service/internal/member/domain"
	memberrepo "realtime_chat_service/internal/member/repository"
	"realtime_chat_service/internal/relation/domain"

	"github.com/stretchr/testify/mock"
)

var errStoreDown = errors.New("store unavailable")

// flakyRepo 指定的使用者寫入 friends 時失敗
type flakyRepo struct {
	*memberrepo.MemoryMemberRepository
	mu     sync.Mutex
	failOn map[string]bool
}

func newFlakyRepo(members ...memberdomain.Member) *flakyRepo {
	return &flakyRepo{
		MemoryMemberRepository: memberrepo.NewMemoryMemberRepository(members...),
		failOn:                 map[string]bool{},
	}
}

func (r *flakyRepo) fail(memberID string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[memberID] = on
}

func (r *flakyRepo) failing(memberID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failOn[memberID]
}

func (r *flakyRepo) AppendFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	if r.failing(memberID) {
		return false, errStoreDown
	}
	return r.MemoryMemberRepository.AppendFriend(ctx, memberID, friendID)
}

func (r *flakyRepo) RemoveFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	if r.failing(memberID) {
		return false, errStoreDown
	}
	return r.MemoryMemberRepository.RemoveFriend(ctx, memberID, friendID)
}

type notice struct {
	Kind string
	From string
	To   string
}

// recordingNotifier 記錄 Notifier 收到的呼叫
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) FriendAdded(ctx context.Context, requester, friend memberdomain.PublicProfile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Kind: "added", From: requester.ID, To: friend.ID})
}

func (n *recordingNotifier) FriendRemoved(ctx context.Context, requesterID string, removed memberdomain.PublicProfile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Kind: "removed", From: requesterID, To: removed.ID})
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

// MockJournal Mock ReconcileRepository
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) AutoMigrate() error {
	return m.Called().Error(0)
}

func (m *MockJournal) Create(ctx context.Context, task *domain.ReconcileTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockJournal) GetByID(ctx context.Context, id uint) (*domain.ReconcileTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ReconcileTask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJournal) MarkResolved(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockJournal) MarkAttempt(ctx context.Context, id uint, lastErr string, failed bool) error {
	return m.Called(ctx, id, lastErr, failed).Error(0)
}

func (m *MockJournal) FindPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.ReconcileTask, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ReconcileTask), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockQueue Mock ReconcileQueue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, task domain.ReconcileTask) error {
	return m.Called(ctx, task).Error(0)
}

// MockApplier Mock SideApplier
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) ApplySide(ctx context.Context, op domain.EdgeOp, side domain.EdgeSide) (bool, error) {
	args := m.Called(ctx, op, side)
	return args.Bool(0), args.Error(1)
}

// MockEvents Mock EventPublisher
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Publish(ctx context.Context, ev domain.RelationEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// fakeAck 實作 amqp.Acknowledger
type fakeAck struct {
	mu       sync.Mutex
	acks     int
	nacks    int
	rejects  int
	requeued bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejects++
	return nil
}
