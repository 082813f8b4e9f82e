package app

import (
	"context"
	"sync"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Insert mock insert msg
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMessageRepository) FindDirect(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, a, b, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) FindGroup(ctx context.Context, groupID string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, groupID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) LatestDirect(ctx context.Context, userID string) ([]domain.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) LatestByGroups(ctx context.Context, groupIDs []string) ([]domain.Message, error) {
	args := m.Called(ctx, groupIDs)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

type broadcast struct {
	Room  string
	MsgID string
}

// recordingBroadcaster 記錄 MessageReceived 呼叫
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcast
}

func (b *recordingBroadcaster) MessageReceived(ctx context.Context, room string, msg *domain.Message) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcast{Room: room, MsgID: msg.ID})
	return 1
}

func (b *recordingBroadcaster) all() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.calls...)
}
