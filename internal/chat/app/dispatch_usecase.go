package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	memberdomain "realtime_chat_service/internal/member/domain"
	memberrepo "realtime_chat_service/internal/member/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxContentLength 單則訊息內容上限 (字元數)
const MaxContentLength = 4000

// MessageBroadcaster 把新訊息推給 room 內的連線, 回傳送出的連線數
type MessageBroadcaster interface {
	MessageReceived(ctx context.Context, room string, msg *domain.Message) int
}

// DispatchUseCase 負責寫入訊息並推播
type DispatchUseCase struct {
	msgRepo     repository.MessageRepository
	groupRepo   repository.GroupRepository
	memberRepo  memberrepo.MemberRepository
	broadcaster MessageBroadcaster

	now func() time.Time
}

// NewDispatchUseCase create DispatchUseCase, broadcaster 可以是 nil
func NewDispatchUseCase(
	msgRepo repository.MessageRepository,
	groupRepo repository.GroupRepository,
	memberRepo memberrepo.MemberRepository,
	broadcaster MessageBroadcaster,
) *DispatchUseCase {
	return &DispatchUseCase{
		msgRepo:     msgRepo,
		groupRepo:   groupRepo,
		memberRepo:  memberRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Send 驗證並寫入訊息, 回傳填好 sender/receiver/group 的訊息
func (uc *DispatchUseCase) Send(ctx context.Context, senderID, content string, target domain.Target) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errprocess.Validation("content required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, errprocess.Validation("content too long")
	}
	if target.ID == "" || !target.Kind.Valid() {
		return nil, errprocess.Validation("receiverId or groupId required")
	}

	sender, err := uc.member(ctx, senderID, "User not found")
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Content:   content,
		SenderID:  senderID,
		CreatedAt: uc.now().UTC().Truncate(time.Millisecond),
	}
	profile := sender.Profile()
	msg.Sender = &profile

	switch target.Kind {
	case domain.ChatTypeGroup:
		group, err := uc.groupRepo.FindByID(ctx, target.ID)
		if err != nil {
			if errors.Is(err, domain.ErrGroupNotFound) {
				return nil, errprocess.NotFound("Group not found")
			}
			return nil, errprocess.Transient("find group", err)
		}
		if !group.IsMember(senderID) {
			return nil, errprocess.Forbidden("not a group member")
		}
		msg.GroupID = group.ID
		msg.Group = group.Ref()
	default:
		receiver, err := uc.member(ctx, target.ID, "Receiver not found")
		if err != nil {
			return nil, err
		}
		msg.ReceiverID = receiver.MemberID
		rp := receiver.Profile()
		msg.Receiver = &rp
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, errprocess.Transient("insert message", err)
	}
	return msg, nil
}

// Dispatch Send 之後把 receive_message 推到 target.Room
// 回傳推送到的連線數
func (uc *DispatchUseCase) Dispatch(ctx context.Context, senderID, content string, target domain.Target, path string) (*domain.Message, int, error) {
	msg, err := uc.Send(ctx, senderID, content, target)
	if err != nil {
		return nil, 0, err
	}
	metrics.MessagesDispatched.WithLabelValues(string(target.Kind), path).Inc()

	if uc.broadcaster == nil {
		return msg, 0, nil
	}
	n := uc.broadcaster.MessageReceived(ctx, target.Room, msg)
	logger.Log.Debug("message dispatched",
		zap.String("messageId", msg.ID),
		zap.String("room", target.Room),
		zap.Int("connections", n),
	)
	return msg, n, nil
}

func (uc *DispatchUseCase) member(ctx context.Context, id, notFoundMsg string) (*memberdomain.Member, error) {
	m, err := uc.memberRepo.FindByMemberID(ctx, id)
	if err != nil {
		if errors.Is(err, memberdomain.ErrMemberNotFound) {
			return nil, errprocess.NotFound(notFoundMsg)
		}
		return nil, errprocess.Transient("find member", err)
	}
	return m, nil
}
