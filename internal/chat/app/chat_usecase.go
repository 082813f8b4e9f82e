package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	memberdomain "realtime_chat_service/internal/member/domain"
	memberrepo "realtime_chat_service/internal/member/repository"
	"realtime_chat_service/pkg"
	errprocess "realtime_chat_service/pkg/err"

	"github.com/google/uuid"
)

// HistoryLimit 一次回傳的歷史訊息上限
const HistoryLimit = 200

// ChatUseCase 聊天列表, 歷史訊息與群組
type ChatUseCase struct {
	msgRepo    repository.MessageRepository
	groupRepo  repository.GroupRepository
	memberRepo memberrepo.MemberRepository
}

// NewChatUseCase create ChatUseCase
func NewChatUseCase(
	msgRepo repository.MessageRepository,
	groupRepo repository.GroupRepository,
	memberRepo memberrepo.MemberRepository,
) *ChatUseCase {
	return &ChatUseCase{msgRepo: msgRepo, groupRepo: groupRepo, memberRepo: memberRepo}
}

// ListChats 回傳 direct 與 group 兩份清單, 合併排序交給 client
func (uc *ChatUseCase) ListChats(ctx context.Context, userID string) (domain.ChatList, error) {
	list := domain.ChatList{Direct: []domain.DirectChat{}, Groups: []domain.GroupChat{}}

	latest, err := uc.msgRepo.LatestDirect(ctx, userID)
	if err != nil {
		return list, errprocess.Transient("find latest direct messages", err)
	}
	groups, err := uc.groupRepo.FindByMember(ctx, userID)
	if err != nil {
		return list, errprocess.Transient("find groups", err)
	}
	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}
	groupLatest, err := uc.msgRepo.LatestByGroups(ctx, groupIDs)
	if err != nil {
		return list, errprocess.Transient("find latest group messages", err)
	}

	// 一次查出所有需要的使用者
	var ids []string
	for i := range latest {
		ids = pkg.AppendIfMissing(ids, latest[i].SenderID)
		ids = pkg.AppendIfMissing(ids, latest[i].ReceiverID)
	}
	for i := range groupLatest {
		ids = pkg.AppendIfMissing(ids, groupLatest[i].SenderID)
	}
	for _, g := range groups {
		for _, m := range g.Members {
			ids = pkg.AppendIfMissing(ids, m)
		}
	}
	profiles, err := uc.profiles(ctx, ids)
	if err != nil {
		return list, err
	}

	for i := range latest {
		msg := latest[i]
		counterpart := msg.Counterpart(userID)
		user, ok := profiles[counterpart]
		if !ok {
			// 對方帳號已不存在
			continue
		}
		populate(&msg, profiles, nil)
		list.Direct = append(list.Direct, domain.DirectChat{
			ID:          counterpart,
			Type:        domain.ChatTypeDirect,
			User:        user,
			LastMessage: &msg,
		})
	}

	byGroup := make(map[string]domain.Message, len(groupLatest))
	for _, m := range groupLatest {
		byGroup[m.GroupID] = m
	}
	for i := range groups {
		g := &groups[i]
		chat := domain.GroupChat{
			ID:          g.ID,
			Type:        domain.ChatTypeGroup,
			Name:        g.Name,
			Description: g.Description,
			Members:     pickProfiles(profiles, g.Members),
			Admins:      pickProfiles(profiles, g.Admins),
		}
		if m, ok := byGroup[g.ID]; ok {
			populate(&m, profiles, g)
			chat.LastMessage = &m
		}
		list.Groups = append(list.Groups, chat)
	}
	return list, nil
}

// History 取得對話資訊與歷史訊息, chatType 空字串視為 direct
func (uc *ChatUseCase) History(ctx context.Context, userID, chatID string, chatType domain.ChatType) (domain.ChatHistory, error) {
	if chatType == "" {
		chatType = domain.ChatTypeDirect
	}
	if !chatType.Valid() {
		return domain.ChatHistory{}, errprocess.Validation("type must be direct or group")
	}
	if strings.TrimSpace(chatID) == "" {
		return domain.ChatHistory{}, errprocess.Validation("chatId required")
	}

	var (
		info  domain.ChatInfo
		group *domain.Group
		msgs  []domain.Message
		err   error
	)
	if chatType == domain.ChatTypeGroup {
		group, err = uc.groupRepo.FindByID(ctx, chatID)
		if err != nil {
			if errors.Is(err, domain.ErrGroupNotFound) {
				return domain.ChatHistory{}, errprocess.NotFound("Chat not found")
			}
			return domain.ChatHistory{}, errprocess.Transient("find group", err)
		}
		if !group.IsMember(userID) {
			return domain.ChatHistory{}, errprocess.Forbidden("not a group member")
		}
		info = domain.ChatInfo{ID: group.ID, Name: group.Name, Description: group.Description}
		msgs, err = uc.msgRepo.FindGroup(ctx, chatID, HistoryLimit)
	} else {
		peer, findErr := uc.memberRepo.FindByMemberID(ctx, chatID)
		if findErr != nil {
			if errors.Is(findErr, memberdomain.ErrMemberNotFound) {
				return domain.ChatHistory{}, errprocess.NotFound("Chat not found")
			}
			return domain.ChatHistory{}, errprocess.Transient("find member", findErr)
		}
		info = domain.ChatInfo{ID: peer.MemberID, Name: peer.Name, Phone: peer.Phone}
		msgs, err = uc.msgRepo.FindDirect(ctx, userID, chatID, HistoryLimit)
	}
	if err != nil {
		return domain.ChatHistory{}, errprocess.Transient("find messages", err)
	}

	var ids []string
	for i := range msgs {
		ids = pkg.AppendIfMissing(ids, msgs[i].SenderID)
		if msgs[i].ReceiverID != "" {
			ids = pkg.AppendIfMissing(ids, msgs[i].ReceiverID)
		}
	}
	profiles, err := uc.profiles(ctx, ids)
	if err != nil {
		return domain.ChatHistory{}, err
	}
	for i := range msgs {
		populate(&msgs[i], profiles, group)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	return domain.ChatHistory{
		ChatInfo:      info,
		Messages:      msgs,
		Type:          chatType,
		TotalMessages: len(msgs),
	}, nil
}

// CreateGroup 建立群組, 建立者是第一位成員與 admin
func (uc *ChatUseCase) CreateGroup(ctx context.Context, creatorID, name, description string, members []string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errprocess.Validation("group name required")
	}

	ids := []string{creatorID}
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			ids = pkg.AppendIfMissing(ids, m)
		}
	}
	found, err := uc.memberRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errprocess.Transient("find members", err)
	}
	if len(found) != len(ids) {
		return nil, errprocess.NotFound("member not found")
	}

	group := &domain.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Members:     ids,
		Admins:      []string{creatorID},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := uc.groupRepo.CreateGroup(ctx, group); err != nil {
		return nil, errprocess.Transient("create group", err)
	}
	return group, nil
}

func (uc *ChatUseCase) profiles(ctx context.Context, ids []string) (map[string]memberdomain.PublicProfile, error) {
	out := make(map[string]memberdomain.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members, err := uc.memberRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errprocess.Transient("find members", err)
	}
	for i := range members {
		out[members[i].MemberID] = members[i].Profile()
	}
	return out, nil
}

// populate 填入 sender / receiver / group 顯示欄位
func populate(msg *domain.Message, profiles map[string]memberdomain.PublicProfile, group *domain.Group) {
	if p, ok := profiles[msg.SenderID]; ok {
		msg.Sender = &p
	}
	if msg.ReceiverID != "" {
		if p, ok := profiles[msg.ReceiverID]; ok {
			msg.Receiver = &p
		}
	}
	if group != nil && msg.GroupID == group.ID {
		msg.Group = group.Ref()
	}
}

func pickProfiles(profiles map[string]memberdomain.PublicProfile, ids []string) []memberdomain.PublicProfile {
	out := make([]memberdomain.PublicProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
