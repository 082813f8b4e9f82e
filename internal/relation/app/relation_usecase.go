package app

import (
	"context"
	"errors"
	"strings"
	"time"

	memberdomain "realtime_chat_service/internal/member/domain"
	memberrepo "realtime_chat_service/internal/member/repository"
	"realtime_chat_service/internal/relation/domain"
	"realtime_chat_service/internal/relation/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier 好友關係變更後推播給雙方
type Notifier interface {
	FriendAdded(ctx context.Context, requester, friend memberdomain.PublicProfile)
	FriendRemoved(ctx context.Context, requesterID string, removed memberdomain.PublicProfile)
}

// AddResult AddFriend 的結果
type AddResult struct {
	Friend    memberdomain.PublicProfile
	Requester memberdomain.PublicProfile
}

// RelationUseCase 維護對稱的好友關係
// journal / queue / events / notifier 都可以是 nil
type RelationUseCase struct {
	memberRepo memberrepo.MemberRepository
	locker     repository.PairLocker
	journal    repository.ReconcileRepository
	queue      repository.ReconcileQueue
	events     repository.EventPublisher
	notifier   Notifier
}

// NewRelationUseCase create RelationUseCase
func NewRelationUseCase(
	memberRepo memberrepo.MemberRepository,
	locker repository.PairLocker,
	journal repository.ReconcileRepository,
	queue repository.ReconcileQueue,
	events repository.EventPublisher,
	notifier Notifier,
) *RelationUseCase {
	if locker == nil {
		locker = repository.NewLocalPairLocker()
	}
	return &RelationUseCase{
		memberRepo: memberRepo,
		locker:     locker,
		journal:    journal,
		queue:      queue,
		events:     events,
		notifier:   notifier,
	}
}

// ListFriends 回傳我加的與加我的使用者, 依 id 去重, 我加的在前
func (uc *RelationUseCase) ListFriends(ctx context.Context, userID string) ([]memberdomain.PublicProfile, error) {
	me, err := uc.findMember(ctx, userID, "User not found")
	if err != nil {
		return nil, err
	}

	forward, err := uc.memberRepo.FindByIDs(ctx, me.Friends)
	if err != nil {
		return nil, errprocess.Transient("find friends", err)
	}
	backward, err := uc.memberRepo.FindReferencing(ctx, userID)
	if err != nil {
		return nil, errprocess.Transient("find referencing members", err)
	}

	seen := make(map[string]struct{}, len(forward)+len(backward))
	friends := make([]memberdomain.PublicProfile, 0, len(forward)+len(backward))
	for _, list := range [][]memberdomain.Member{forward, backward} {
		for i := range list {
			id := list[i].MemberID
			if _, ok := seen[id]; ok || id == userID {
				continue
			}
			seen[id] = struct{}{}
			friends = append(friends, list[i].Profile())
		}
	}
	return friends, nil
}

// AddFriend 以電話號碼加好友, 兩邊的清單都會加入對方
func (uc *RelationUseCase) AddFriend(ctx context.Context, requesterID, phone string) (AddResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return AddResult{}, errprocess.Validation("phone required")
	}

	target, err := uc.memberRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, memberdomain.ErrMemberNotFound) {
			return AddResult{}, errprocess.NotFound("phone not registered")
		}
		return AddResult{}, errprocess.Transient("find member by phone", err)
	}
	if target.MemberID == requesterID {
		return AddResult{}, errprocess.Validation("cannot add yourself")
	}

	var res AddResult
	err = uc.withPair(ctx, requesterID, target.MemberID, func() error {
		// lock 內重新讀取兩邊
		me, err := uc.findMember(ctx, requesterID, "User not found")
		if err != nil {
			return err
		}
		friend, err := uc.findMember(ctx, target.MemberID, "phone not registered")
		if err != nil {
			return err
		}
		// 只看自己這邊; 對方缺的那一半交給 reconcile 補
		if me.HasFriend(friend.MemberID) {
			return errprocess.Conflict("Already friends")
		}

		if err := uc.settle(ctx, uc.applyEdge(ctx, domain.OpAdd, me.MemberID, friend.MemberID)); err != nil {
			return err
		}
		res = AddResult{Friend: friend.Profile(), Requester: me.Profile()}
		return nil
	})
	uc.record(ctx, domain.OpAdd, requesterID, target.MemberID, err)
	if err != nil {
		return AddResult{}, err
	}

	if uc.notifier != nil {
		uc.notifier.FriendAdded(ctx, res.Requester, res.Friend)
	}
	return res, nil
}

// RemoveFriend 解除好友, 兩邊都移除; 原本不是好友也視為成功
func (uc *RelationUseCase) RemoveFriend(ctx context.Context, requesterID, targetID string) (memberdomain.PublicProfile, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return memberdomain.PublicProfile{}, errprocess.Validation("friendId required")
	}
	if targetID == requesterID {
		return memberdomain.PublicProfile{}, errprocess.Validation("cannot remove yourself")
	}

	var removed memberdomain.PublicProfile
	err := uc.withPair(ctx, requesterID, targetID, func() error {
		target, err := uc.findMember(ctx, targetID, "Friend not found")
		if err != nil {
			return err
		}
		if err := uc.settle(ctx, uc.applyEdge(ctx, domain.OpRemove, requesterID, targetID)); err != nil {
			return err
		}
		removed = target.Profile()
		return nil
	})
	uc.record(ctx, domain.OpRemove, requesterID, targetID, err)
	if err != nil {
		return memberdomain.PublicProfile{}, err
	}

	if uc.notifier != nil {
		uc.notifier.FriendRemoved(ctx, requesterID, removed)
	}
	return removed, nil
}

// ApplySide 補寫單邊, 給 reconcile worker 使用
// 只往已寫入那一邊的狀態收斂: 若對方那一邊之後又被改掉, 這個 task 已過期, 不寫入
func (uc *RelationUseCase) ApplySide(ctx context.Context, op domain.EdgeOp, side domain.EdgeSide) (bool, error) {
	var wrote bool
	err := uc.withPair(ctx, side.UserID, side.FriendID, func() error {
		counterpart, err := uc.findMember(ctx, side.FriendID, "counterpart not found")
		if err != nil {
			return err
		}
		applied := counterpart.HasFriend(side.UserID)
		if (op == domain.OpAdd) != applied {
			logger.Log.Info("reconcile task superseded",
				zap.String("pair", domain.PairKey(side.UserID, side.FriendID)), zap.String("op", string(op)))
			return nil
		}
		wrote, err = uc.writeSide(ctx, op, side)
		return err
	})
	return wrote, err
}

// applyEdge 依序寫入兩邊; 兩邊的寫入都是冪等的單列更新
func (uc *RelationUseCase) applyEdge(ctx context.Context, op domain.EdgeOp, a, b string) domain.EdgeResult {
	if _, err := uc.writeSide(ctx, op, domain.EdgeSide{UserID: a, FriendID: b}); err != nil {
		return domain.EdgeResult{Outcome: domain.EdgeFailed, Op: op, Err: err}
	}
	pending := domain.EdgeSide{UserID: b, FriendID: a}
	if _, err := uc.writeSide(ctx, op, pending); err != nil {
		return domain.EdgeResult{Outcome: domain.EdgePartial, Op: op, Pending: &pending, Err: err}
	}
	return domain.EdgeResult{Outcome: domain.EdgeApplied, Op: op}
}

func (uc *RelationUseCase) writeSide(ctx context.Context, op domain.EdgeOp, side domain.EdgeSide) (bool, error) {
	if op == domain.OpAdd {
		return uc.memberRepo.AppendFriend(ctx, side.UserID, side.FriendID)
	}
	return uc.memberRepo.RemoveFriend(ctx, side.UserID, side.FriendID)
}

// settle 把 EdgeResult 轉成呼叫端看到的錯誤; partial 會寫 journal 並排入 reconcile queue
func (uc *RelationUseCase) settle(ctx context.Context, res domain.EdgeResult) error {
	switch res.Outcome {
	case domain.EdgeApplied:
		return nil
	case domain.EdgeFailed:
		return errprocess.Transient(string(res.Op)+" friend", res.Err)
	}

	task := domain.ReconcileTask{
		PairKey:   domain.PairKey(res.Pending.UserID, res.Pending.FriendID),
		Op:        res.Op,
		UserID:    res.Pending.UserID,
		FriendID:  res.Pending.FriendID,
		Status:    domain.TaskPending,
		LastError: res.Err.Error(),
	}
	logger.Log.Error("friendship partially applied",
		zap.String("pair", task.PairKey),
		zap.String("op", string(res.Op)),
		zap.String("pendingUser", task.UserID),
		zap.Error(res.Err),
	)

	// 用獨立 ctx, request ctx 取消也要把 journal 寫完
	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if uc.journal != nil {
		if err := uc.journal.Create(journalCtx, &task); err != nil {
			logger.Log.Error("journal reconcile task", zap.String("pair", task.PairKey), zap.Error(err))
		}
	}
	if uc.queue != nil {
		if err := uc.queue.Enqueue(journalCtx, task); err != nil {
			logger.Log.Error("enqueue reconcile task", zap.String("pair", task.PairKey), zap.Error(err))
		} else {
			metrics.ReconcileTasks.WithLabelValues("enqueued").Inc()
		}
	}
	return errprocess.Wrap(errprocess.KindInconsistent, "friendship partially applied, repair scheduled", res.Err)
}

func (uc *RelationUseCase) withPair(ctx context.Context, a, b string, fn func() error) error {
	unlock, err := uc.locker.Lock(ctx, a, b)
	if err != nil {
		return errprocess.Transient("acquire pair lock", err)
	}
	defer unlock()
	return fn()
}

func (uc *RelationUseCase) findMember(ctx context.Context, id, notFoundMsg string) (*memberdomain.Member, error) {
	m, err := uc.memberRepo.FindByMemberID(ctx, id)
	if err != nil {
		if errors.Is(err, memberdomain.ErrMemberNotFound) {
			return nil, errprocess.NotFound(notFoundMsg)
		}
		return nil, errprocess.Transient("find member", err)
	}
	return m, nil
}

// record 更新 metrics 並把成功的變更寫到 event stream
func (uc *RelationUseCase) record(ctx context.Context, op domain.EdgeOp, requesterID, targetID string, err error) {
	outcome := "applied"
	if err != nil {
		outcome = errprocess.KindOf(err).String()
	}
	metrics.FriendshipMutations.WithLabelValues(string(op), outcome).Inc()

	if err != nil || uc.events == nil {
		return
	}
	ev := domain.RelationEvent{
		Op:          op,
		RequesterID: requesterID,
		TargetID:    targetID,
		Outcome:     outcome,
		OccurredAt:  time.Now().UTC(),
	}
	if pubErr := uc.events.Publish(ctx, ev); pubErr != nil {
		logger.Log.Warn("publish relation event", zap.String("op", string(op)), zap.Error(pubErr))
	}
}
