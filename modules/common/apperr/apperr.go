package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrValidation          ErrorCode = "VALIDATION"
	ErrInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	ErrConflict            ErrorCode = "CONFLICT"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrProviderFailed      ErrorCode = "PROVIDER_FAILED"
	ErrTimedOut            ErrorCode = "TIMED_OUT"
	ErrInvalidOutput       ErrorCode = "INVALID_OUTPUT"
	ErrPersistence         ErrorCode = "PERSISTENCE"
)

// AppError - 사가 전체에서 쓰는 에러 타입 (코드 + 메시지 + 프로바이더 진단 정보)
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// New - 새 AppError 생성
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf - 포맷 메시지로 생성
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap - 하위 에러를 감싸서 생성
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

// WithDetails - 프로바이더 진단 페이로드 첨부
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// CodeOf - 에러에서 코드 추출 (AppError가 아니면 빈 값)
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is - 코드 비교 헬퍼
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// HTTPStatus - 에러 코드를 HTTP 상태 코드로 매핑
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrInsufficientCredits:
		return http.StatusPaymentRequired
	case ErrConflict:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrProviderFailed, ErrTimedOut, ErrInvalidOutput, ErrPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
