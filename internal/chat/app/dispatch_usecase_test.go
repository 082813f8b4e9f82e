package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	memberdomain "realtime_chat_service/internal/member/domain"
	memberrepo "realtime_chat_service/internal/member/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testMembers() *memberrepo.MemoryMemberRepository {
	return memberrepo.NewMemoryMemberRepository(
		memberdomain.Member{MemberID: "alice", Name: "Alice", Phone: "100"},
		memberdomain.Member{MemberID: "bob", Name: "Bob", Phone: "200"},
		memberdomain.Member{MemberID: "carol", Name: "Carol", Phone: "300"},
	)
}

func testGroups() *repository.MemoryGroupRepository {
	return repository.NewMemoryGroupRepository(domain.Group{
		ID: "g1", Name: "Team", Description: "team chat",
		Members: []string{"alice", "bob"}, Admins: []string{"alice"},
	})
}

func mustTarget(t *testing.T, groupID, toUserID, roomID string) domain.Target {
	t.Helper()
	target, err := domain.ResolveTarget(groupID, toUserID, roomID)
	require.NoError(t, err)
	return target
}

func TestDispatchUseCase_Send(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("direct 訊息會填入 sender 與 receiver", func(t *testing.T) {
		msgs := repository.NewMemoryMessageRepository()
		uc := NewDispatchUseCase(msgs, testGroups(), testMembers(), nil)
		fixed := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
		uc.now = func() time.Time { return fixed }

		msg, err := uc.Send(ctx, "alice", "  hi  ", mustTarget(t, "", "bob", ""))

		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "bob", msg.ReceiverID)
		assert.Empty(t, msg.GroupID)
		assert.Equal(t, fixed.Truncate(time.Millisecond), msg.CreatedAt)
		require.NotNil(t, msg.Sender)
		require.NotNil(t, msg.Receiver)
		assert.Equal(t, "Alice", msg.Sender.Name)
		assert.Equal(t, "Bob", msg.Receiver.Name)

		stored, err := msgs.FindDirect(ctx, "alice", "bob", 0)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, msg.ID, stored[0].ID)
	})

	t.Run("group 訊息需要是成員", func(t *testing.T) {
		uc := NewDispatchUseCase(repository.NewMemoryMessageRepository(), testGroups(), testMembers(), nil)

		msg, err := uc.Send(ctx, "bob", "team", mustTarget(t, "g1", "", "g1"))
		require.NoError(t, err)
		assert.Equal(t, "g1", msg.GroupID)
		require.NotNil(t, msg.Group)
		assert.Equal(t, "Team", msg.Group.Name)
		assert.Nil(t, msg.Receiver)

		_, err = uc.Send(ctx, "carol", "team", mustTarget(t, "g1", "", ""))
		assert.True(t, errprocess.Is(err, errprocess.KindForbidden))

		_, err = uc.Send(ctx, "bob", "team", mustTarget(t, "nope", "", ""))
		assert.True(t, errprocess.Is(err, errprocess.KindNotFound))
	})

	t.Run("驗證錯誤", func(t *testing.T) {
		msgs := new(MockMessageRepository)
		uc := NewDispatchUseCase(msgs, testGroups(), testMembers(), nil)

		_, err := uc.Send(ctx, "alice", "   ", mustTarget(t, "", "bob", ""))
		assert.True(t, errprocess.Is(err, errprocess.KindValidation))

		_, err = uc.Send(ctx, "alice", strings.Repeat("a", MaxContentLength+1), mustTarget(t, "", "bob", ""))
		assert.True(t, errprocess.Is(err, errprocess.KindValidation))

		_, err = uc.Send(ctx, "alice", "hi", domain.Target{})
		assert.True(t, errprocess.Is(err, errprocess.KindValidation))

		_, err = uc.Send(ctx, "alice", "hi", mustTarget(t, "", "nobody", ""))
		assert.True(t, errprocess.Is(err, errprocess.KindNotFound))

		msgs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("寫入失敗", func(t *testing.T) {
		msgs := new(MockMessageRepository)
		msgs.On("Insert", ctx, mock.Anything).Return(errors.New("mongo down")).Once()
		b := &recordingBroadcaster{}
		uc := NewDispatchUseCase(msgs, testGroups(), testMembers(), b)

		_, _, err := uc.Dispatch(ctx, "alice", "hi", mustTarget(t, "", "bob", "bob"), PathWS)

		assert.True(t, errprocess.Is(err, errprocess.KindTransientStore))
		assert.Empty(t, b.all())
		msgs.AssertExpectations(t)
	})
}

func TestDispatchUseCase_Dispatch(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	b := &recordingBroadcaster{}
	uc := NewDispatchUseCase(repository.NewMemoryMessageRepository(), testGroups(), testMembers(), b)

	// roomId 當成收件者
	first, n, err := uc.Dispatch(ctx, "alice", "hi", mustTarget(t, "", "", "bob"), PathWS)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "bob", first.ReceiverID)

	// 宣告的 roomId 優先於 target id
	second, _, err := uc.Dispatch(ctx, "bob", "yo", mustTarget(t, "", "alice", "conversation-1"), PathWS)
	require.NoError(t, err)

	third, _, err := uc.Dispatch(ctx, "alice", "team", mustTarget(t, "g1", "bob", ""), PathREST)
	require.NoError(t, err)
	assert.Equal(t, "g1", third.GroupID)

	assert.Equal(t, []broadcast{
		{Room: "bob", MsgID: first.ID},
		{Room: "conversation-1", MsgID: second.ID},
		{Room: "g1", MsgID: third.ID},
	}, b.all())
}

func TestResolveTarget(t *testing.T) {
	cases := []struct {
		name                    string
		groupID, toUser, roomID string
		want                    domain.Target
	}{
		{"group 優先", "g1", "bob", "room", domain.Target{Kind: domain.ChatTypeGroup, ID: "g1", Room: "room"}},
		{"direct", "", "bob", "", domain.Target{Kind: domain.ChatTypeDirect, ID: "bob", Room: "bob"}},
		{"roomId 當收件者", "", "", "bob", domain.Target{Kind: domain.ChatTypeDirect, ID: "bob", Room: "bob"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ResolveTarget(tc.groupID, tc.toUser, tc.roomID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := domain.ResolveTarget("", "", "")
	assert.ErrorIs(t, err, domain.ErrMissingTarget)
}
