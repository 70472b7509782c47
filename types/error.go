package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the gateway.
type ErrorCode string

// Request error codes
const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrUnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	ErrEmptyText           ErrorCode = "EMPTY_TEXT"
	ErrTextTooLong         ErrorCode = "TEXT_TOO_LONG"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrMethodNotAllowed    ErrorCode = "METHOD_NOT_ALLOWED"
)

// Provider error codes
const (
	ErrSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"
	ErrUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrInternalError       ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// AsError extracts a *Error from anywhere in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// =============================================================================
// 常用错误构造
// =============================================================================

// NewInvalidRequestError 请求体无法解析或结构错误
func NewInvalidRequestError(message string) *Error {
	return NewError(ErrInvalidRequest, message)
}

// NewUnsupportedLanguageError 语言代码不在支持列表中
func NewUnsupportedLanguageError(language string) *Error {
	return NewError(ErrUnsupportedLanguage, fmt.Sprintf("Unsupported language: %s", language))
}

// NewSynthesisError 语音合成服务返回错误
func NewSynthesisError(provider string, cause error) *Error {
	return NewError(ErrSynthesisFailed, "speech synthesis failed").
		WithCause(cause).
		WithProvider(provider).
		WithRetryable(true)
}

// NewTimeoutError 语音合成超时
func NewTimeoutError(provider string, cause error) *Error {
	return NewError(ErrUpstreamTimeout, "speech synthesis timed out").
		WithCause(cause).
		WithProvider(provider).
		WithRetryable(true)
}
