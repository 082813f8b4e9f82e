package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleUser is the user role
	RoleUser RoleType = "user"
	// RoleAdmin is the admin role
	RoleAdmin RoleType = "admin"
)

var (
	// ErrInvalidToken token 無法驗證
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject token 沒有 user id
	ErrMissingSubject = errors.New("token has no subject")
)

// Claims structure for custom claims in JWT
// subject 以 RegisteredClaims.Subject 為主, MemberID 為相容舊 token 的欄位
type Claims struct {
	MemberID string `json:"user_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID 回傳 token 代表的使用者
func (c *Claims) UserID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.MemberID
}

// Verifier 驗證 HS256 token
type Verifier struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewVerifier create Verifier. issuer 空字串表示不檢查 iss
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: 24 * time.Hour,
	}
}

// Generate 簽發 token, 主要給測試與工具使用
func (v *Verifier) Generate(userID string, role RoleType) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses tokenStr and returns claims with a non-empty subject
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID() == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
