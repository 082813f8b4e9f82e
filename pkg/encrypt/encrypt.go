package encrypt

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt.DefaultCost = 10
const bcryptCost = bcrypt.DefaultCost

var (
	// ErrWeakPassword 不符合 PasswordPolicy, 回傳的錯誤會 wrap 它
	ErrWeakPassword     = errors.New("weak password")
	ErrPasswordMismatch = errors.New("password does not match")
)

// Rule 一條密碼規則
type Rule struct {
	Pattern *regexp.Regexp
	Message string
}

// MinPasswordLength 註冊密碼最短長度
const MinPasswordLength = 8

// PasswordPolicy 註冊時檢查的規則, 依序檢查並回報第一條不符合的
var PasswordPolicy = []Rule{
	{regexp.MustCompile(`[A-Z]`), "must contain at least one uppercase letter"},
	{regexp.MustCompile(`[0-9]`), "must contain at least one digit"},
	{regexp.MustCompile(`[!@#\$%\^&\*]`), "must contain at least one special character (!@#$%^&*)"},
}

// ValidatePasswordStrength 檢查長度與 PasswordPolicy
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, MinPasswordLength)
	}
	for _, r := range PasswordPolicy {
		if !r.Pattern.MatchString(password) {
			return fmt.Errorf("%w: %s", ErrWeakPassword, r.Message)
		}
	}
	return nil
}

// HashPassword 檢查強度後以 bcrypt 雜湊
// 強度不足回傳 ErrWeakPassword, 其他錯誤來自 bcrypt
func HashPassword(password string) (string, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword 比對雜湊, 不符合時回傳 ErrPasswordMismatch
func CheckPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
