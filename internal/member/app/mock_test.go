package app

import (
	"context"

	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/pkg/token"

	"github.com/stretchr/testify/mock"
)

// MockMemberRepo Mock MemberRepository
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMemberRepo) CreateUser(ctx context.Context, member *domain.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMemberRepo) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockMemberRepo) FindByMemberID(ctx context.Context, memberID string) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) FindByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Member, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) FindReferencing(ctx context.Context, memberID string) ([]domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) AppendFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	args := m.Called(ctx, memberID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepo) RemoveFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	args := m.Called(ctx, memberID, friendID)
	return args.Bool(0), args.Error(1)
}

// MockIssuer Mock TokenIssuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Generate(userID string, role token.RoleType) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}
