package errprocess

import (
	"errors"
	"fmt"
	"net/http"

	"realtime_chat_service/pkg/logger"
)

// Kind 錯誤分類, 決定對外的 HTTP 狀態碼
type Kind int

const (
	// KindInternal 未分類的錯誤
	KindInternal Kind = iota
	// KindValidation 請求內容不合法
	KindValidation
	// KindNotFound 目標不存在
	KindNotFound
	// KindConflict 狀態衝突, 例如已經是好友
	KindConflict
	// KindForbidden 沒有權限
	KindForbidden
	// KindAuthentication token 驗證失敗
	KindAuthentication
	// KindTransientStore 儲存層暫時失敗, 呼叫端可重試
	KindTransientStore
	// KindInconsistent 雙邊寫入只完成一半
	KindInconsistent
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindAuthentication:
		return "authentication"
	case KindTransientStore:
		return "transient_store"
	case KindInconsistent:
		return "inconsistent"
	default:
		return "internal"
	}
}

// AppError 帶分類的錯誤
type AppError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New create AppError
func New(kind Kind, msg string) error {
	return &AppError{Kind: kind, Msg: msg}
}

// Wrap wraps err under kind, msg is what the client sees
func Wrap(kind Kind, msg string, err error) error {
	return &AppError{Kind: kind, Msg: msg, Err: err}
}

// Validation shorthand
func Validation(msg string) error { return New(KindValidation, msg) }

// NotFound shorthand
func NotFound(msg string) error { return New(KindNotFound, msg) }

// Conflict shorthand
func Conflict(msg string) error { return New(KindConflict, msg) }

// Forbidden shorthand
func Forbidden(msg string) error { return New(KindForbidden, msg) }

// Transient wraps a store failure
func Transient(op string, err error) error {
	return Wrap(KindTransientStore, fmt.Sprintf("%s failed", op), err)
}

// KindOf 取出 err 的分類, 非 AppError 視為 internal
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is report whether err carries kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus map err kind to status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage 回給 client 的訊息, internal 錯誤不外洩細節
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal && appErr.Kind != KindTransientStore {
		return appErr.Error()
	}
	return "Server error"
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
