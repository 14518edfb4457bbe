// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodeProjectNotFound   ErrorCode = "3001"
	CodeChapterNotFound   ErrorCode = "3002"
	CodeOutlineNotFound   ErrorCode = "3003"
	CodeCharacterNotFound ErrorCode = "3004"

	// 生成业务错误 (4xxx)
	CodeGenerationFailed   ErrorCode = "4001"
	CodeGenerationCanceled ErrorCode = "4002"
	CodeDependencyUnmet    ErrorCode = "4101"
	CodeGenerationConflict ErrorCode = "4102"
	CodeWizardRegression   ErrorCode = "4103"
	CodePersistFailed      ErrorCode = "4104"

	// 上游 LLM 错误 (5xxx)
	CodeProviderConfig    ErrorCode = "5001"
	CodeProviderAuth      ErrorCode = "5002"
	CodeProviderRateLimit ErrorCode = "5003"
	CodeProviderNetwork   ErrorCode = "5004"
	CodeUpstreamProtocol  ErrorCode = "5005"

	// 外部依赖错误 (6xxx)
	CodeDatabaseError ErrorCode = "6001"
	CodeCacheError    ErrorCode = "6002"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Clone 复制错误，避免修改预定义实例
func (e *AppError) Clone() *AppError {
	cp := *e
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeProviderConfig:
		return http.StatusBadRequest
	case CodeProviderAuth:
		return http.StatusUnauthorized
	case CodeNotFound, CodeProjectNotFound, CodeChapterNotFound, CodeOutlineNotFound, CodeCharacterNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeGenerationConflict, CodeWizardRegression:
		return http.StatusConflict
	case CodeDependencyUnmet:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests, CodeProviderRateLimit:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeProviderNetwork:
		return http.StatusServiceUnavailable
	case CodeUpstreamProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrProjectNotFound   = New(CodeProjectNotFound, "project not found")
	ErrChapterNotFound   = New(CodeChapterNotFound, "chapter not found")
	ErrOutlineNotFound   = New(CodeOutlineNotFound, "outline not found")
	ErrCharacterNotFound = New(CodeCharacterNotFound, "character not found")

	ErrGenerationFailed   = New(CodeGenerationFailed, "generation failed")
	ErrGenerationCanceled = New(CodeGenerationCanceled, "generation canceled")
	ErrDependencyUnmet    = New(CodeDependencyUnmet, "previous chapters have no content")
	ErrGenerationConflict = New(CodeGenerationConflict, "another generation is running for this target")
	ErrWizardRegression   = New(CodeWizardRegression, "wizard phase cannot move backwards")
	ErrPersistFailed      = New(CodePersistFailed, "failed to persist generated content")

	ErrProviderConfig    = New(CodeProviderConfig, "llm provider misconfigured")
	ErrProviderAuth      = New(CodeProviderAuth, "llm provider rejected credentials")
	ErrProviderRateLimit = New(CodeProviderRateLimit, "llm provider rate limited")
	ErrProviderNetwork   = New(CodeProviderNetwork, "llm provider unreachable")
	ErrUpstreamProtocol  = New(CodeUpstreamProtocol, "llm provider returned malformed response")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// IsCode 检查错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
