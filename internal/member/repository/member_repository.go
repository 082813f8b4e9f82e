package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realtime_chat_service/internal/member/domain"
)

// MemberRepository definition get Member info
type MemberRepository interface {
	Migrate(ctx context.Context) error
	CreateUser(ctx context.Context, member *domain.Member) error
	UpdateMemberStatus(ctx context.Context, member *domain.Member) error
	FindByMemberID(ctx context.Context, memberID string) (*domain.Member, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Member, error)
	FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error)
	// FindReferencing 找出 friends 內含 memberID 的使用者 (反向關係)
	FindReferencing(ctx context.Context, memberID string) ([]domain.Member, error)
	// AppendFriend / RemoveFriend 是單列原子更新, 重複呼叫結果相同
	// changed 表示這次呼叫實際改變了資料
	AppendFriend(ctx context.Context, memberID, friendID string) (changed bool, err error)
	RemoveFriend(ctx context.Context, memberID, friendID string) (changed bool, err error)
}

const memberColumns = "id, member_id, name, phone, password, friends, status, created_at"

const migrateSQL = `
CREATE TABLE IF NOT EXISTS member (
	id         BIGSERIAL PRIMARY KEY,
	member_id  TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	friends    TEXT[] NOT NULL DEFAULT '{}',
	status     INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS member_friends_gin ON member USING GIN (friends);
`

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, migrateSQL)
	return err
}

func (r *memberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	if member.Friends == nil {
		member.Friends = []string{}
	}
	err := r.db.QueryRow(ctx,
		"INSERT INTO member(member_id, name, phone, password, friends) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		member.MemberID, member.Name, member.Phone, member.Password, member.Friends,
	).Scan(&member.ID, &member.CreatedAt)
	if isPhoneConflict(err) {
		return domain.ErrPhoneTaken
	}
	return err
}

// phoneUniqueConstraint postgres 為 UNIQUE(phone) 產生的名稱
const phoneUniqueConstraint = "member_phone_key"

// isPhoneConflict 23505 unique_violation 且是 phone 欄位
func isPhoneConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == phoneUniqueConstraint
}

func (r *memberRepository) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Exec(ctx, "UPDATE member SET status = $1 WHERE member_id = $2", member.Status, member.MemberID)
	return err
}

func (r *memberRepository) FindByMemberID(ctx context.Context, memberID string) (*domain.Member, error) {
	return r.findOne(ctx, "SELECT "+memberColumns+" FROM member WHERE member_id = $1", memberID)
}

func (r *memberRepository) FindByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	return r.findOne(ctx, "SELECT "+memberColumns+" FROM member WHERE phone = $1", phone)
}

func (r *memberRepository) FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	// 依照傳入順序回傳
	return r.findMany(ctx,
		"SELECT "+memberColumns+" FROM member WHERE member_id = ANY($1) ORDER BY array_position($1::text[], member_id)",
		memberIDs)
}

func (r *memberRepository) FindReferencing(ctx context.Context, memberID string) ([]domain.Member, error) {
	return r.findMany(ctx,
		"SELECT "+memberColumns+" FROM member WHERE friends @> ARRAY[$1::text] ORDER BY id",
		memberID)
}

func (r *memberRepository) AppendFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE member SET friends = array_append(friends, $2::text) WHERE member_id = $1 AND NOT ($2::text = ANY(friends))",
		memberID, friendID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *memberRepository) RemoveFriend(ctx context.Context, memberID, friendID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE member SET friends = array_remove(friends, $2::text) WHERE member_id = $1 AND $2::text = ANY(friends)",
		memberID, friendID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *memberRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Member, error) {
	member, err := scanMember(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *memberRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	if err := row.Scan(&m.ID, &m.MemberID, &m.Name, &m.Phone, &m.Password, &m.Friends, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
