package app

import (
	"context"
	"errors"
	"strings"

	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/internal/member/repository"
	errprocess "realtime_chat_service/pkg/err"
	"realtime_chat_service/pkg/encrypt"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer 簽發登入 token
type TokenIssuer interface {
	Generate(userID string, role token.RoleType) (string, error)
}

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, name, phone, password string) (*domain.Member, error)
	Login(ctx context.Context, phone, password string) (string, error)
	Profile(ctx context.Context, memberID string) (domain.PublicProfile, error)
}

type memberUseCase struct {
	memberRepo   repository.MemberRepository
	issuer       TokenIssuer
	hashPassword func(string) (string, error)
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository, issuer TokenIssuer, hashPassword func(string) (string, error)) MemberUseCase {
	if hashPassword == nil {
		hashPassword = encrypt.HashPassword
	}
	return &memberUseCase{
		memberRepo:   memberRepo,
		issuer:       issuer,
		hashPassword: hashPassword,
	}
}

// Register 以電話號碼註冊, 電話必須唯一
func (m *memberUseCase) Register(ctx context.Context, name, phone, password string) (*domain.Member, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" || phone == "" || password == "" {
		return nil, errprocess.Validation("name, phone and password are required")
	}

	_, err := m.memberRepo.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		return nil, errprocess.Conflict("phone already registered")
	case !errors.Is(err, domain.ErrMemberNotFound):
		return nil, errprocess.Transient("find member", err)
	}

	pw, err := m.hashPassword(password)
	switch {
	case errors.Is(err, encrypt.ErrWeakPassword):
		return nil, errprocess.Wrap(errprocess.KindValidation, err.Error(), err)
	case err != nil:
		return nil, errprocess.Wrap(errprocess.KindInternal, "hash password", err)
	}

	member := &domain.Member{
		MemberID: uuid.New().String(),
		Name:     name,
		Phone:    phone,
		Password: pw,
		Friends:  []string{},
	}
	if err := m.memberRepo.CreateUser(ctx, member); err != nil {
		// 與其他請求同時註冊同一支電話
		if errors.Is(err, domain.ErrPhoneTaken) {
			return nil, errprocess.Conflict("phone already registered")
		}
		return nil, errprocess.Transient("create member", err)
	}

	logger.Log.Info("member registered", zap.String("memberID", member.MemberID))
	return member, nil
}

// Login 驗證密碼後簽發 token
func (m *memberUseCase) Login(ctx context.Context, phone, password string) (string, error) {
	member, err := m.memberRepo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return "", errprocess.New(errprocess.KindAuthentication, "invalid phone or password")
		}
		return "", errprocess.Transient("find member", err)
	}

	if err := member.IsPasswordMatch(password); err != nil {
		logger.Log.Debug("password mismatch", zap.String("memberID", member.MemberID))
		return "", errprocess.New(errprocess.KindAuthentication, "invalid phone or password")
	}

	t, err := m.issuer.Generate(member.MemberID, token.RoleUser)
	if err != nil {
		return "", errprocess.Wrap(errprocess.KindInternal, "issue token", err)
	}

	member.Status = domain.MemberStatusOnLine
	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		logger.Log.Warn("update member status", zap.String("memberID", member.MemberID), zap.Error(err))
	}
	return t, nil
}

// Profile 取得自己的公開資料
func (m *memberUseCase) Profile(ctx context.Context, memberID string) (domain.PublicProfile, error) {
	member, err := m.memberRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return domain.PublicProfile{}, errprocess.NotFound("User not found")
		}
		return domain.PublicProfile{}, errprocess.Transient("find member", err)
	}
	return member.Profile(), nil
}
