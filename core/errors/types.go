package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Code represents a standardized error code
type Code string

const (
	// Payload validation errors
	CodeEmptyMessage      Code = "EMPTY_MESSAGE"
	CodeAttachmentMissing Code = "ATTACHMENT_MISSING"
	CodeAttachmentType    Code = "ATTACHMENT_TYPE"
	CodeInvalidPriority   Code = "INVALID_PRIORITY"
	CodeInvalidSound      Code = "INVALID_SOUND"
	CodeInvalidPercent    Code = "INVALID_PERCENT"

	// Client state errors
	CodeNoReceipt Code = "NO_RECEIPT"

	// Network and transport errors
	CodeNetworkError Code = "NETWORK_ERROR"
	CodeTimeout      Code = "TIMEOUT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeServerError  Code = "SERVER_ERROR"

	// Authentication errors
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthorized       Code = "UNAUTHORIZED"

	// General errors
	CodeSendingFailed Code = "SENDING_FAILED"
	CodeDecodeFailed  Code = "DECODE_FAILED"
)

// Category represents the category of an error
type Category string

const (
	CategoryValidation Category = "VALIDATION"
	CategoryState      Category = "STATE"
	CategoryNetwork    Category = "NETWORK"
	CategoryAuth       Category = "AUTH"
	CategoryRateLimit  Category = "RATE_LIMIT"
	CategoryTransport  Category = "TRANSPORT"
)

// Error is the standardized error type used across the library
type Error struct {
	Code     Code     `json:"code"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Cause    error    `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code && e.Category == t.Category
	}
	return false
}

// New creates a new Error
func New(code Code, category Category, message string) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(code Code, category Category, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

// MapHTTPError maps non-2xx HTTP responses to a categorized Error
func MapHTTPError(statusCode int, body string) *Error {
	var code Code
	var category Category
	var message string

	switch {
	case statusCode == http.StatusUnauthorized:
		code = CodeUnauthorized
		category = CategoryAuth
		message = "authentication required"
	case statusCode == http.StatusNotFound:
		code = CodeNotFound
		category = CategoryNetwork
		message = "resource not found"
	case statusCode == http.StatusTooManyRequests:
		code = CodeRateLimited
		category = CategoryRateLimit
		message = "rate limit exceeded"
	case statusCode >= 400 && statusCode < 500:
		code = CodeInvalidCredentials
		category = CategoryValidation
		message = fmt.Sprintf("client error: %d", statusCode)
	case statusCode >= 500:
		code = CodeServerError
		category = CategoryNetwork
		message = fmt.Sprintf("server error: %d", statusCode)
	default:
		code = CodeNetworkError
		category = CategoryNetwork
		message = fmt.Sprintf("HTTP error: %d", statusCode)
	}

	// Include response body if available and not too long
	if body != "" && len(body) < 200 {
		message += fmt.Sprintf(" - %s", strings.TrimSpace(body))
	}

	return New(code, category, message)
}

// MapNetworkError maps transport-level failures to Error
func MapNetworkError(err error) *Error {
	if err == nil {
		return nil
	}
	if isTimeoutError(err) {
		return Wrap(CodeTimeout, CategoryNetwork, "request timeout", err)
	}
	return Wrap(CodeNetworkError, CategoryNetwork, "network error", err)
}

func isTimeoutError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "i/o timeout")
}
