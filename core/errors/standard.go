package errors

// Standard error definitions shared across packages

// Payload validation errors
var (
	ErrEmptyMessage      = New(CodeEmptyMessage, CategoryValidation, "message text cannot be empty")
	ErrAttachmentMissing = New(CodeAttachmentMissing, CategoryValidation, "attachment file does not exist")
	ErrAttachmentType    = New(CodeAttachmentType, CategoryValidation, "attachment must be a jpeg or png image")
	ErrInvalidPriority   = New(CodeInvalidPriority, CategoryValidation, "priority must be between -2 and 2")
	ErrInvalidSound      = New(CodeInvalidSound, CategoryValidation, "sound is not a recognized notification sound")
	ErrInvalidPercent    = New(CodeInvalidPercent, CategoryValidation, "percent must be between 0 and 100")
)

// Client state errors
var (
	ErrNoReceipt = New(CodeNoReceipt, CategoryState, "no prior send with a receipt, provide a receipt id")
)

// Transport errors
var (
	ErrNetworkError       = New(CodeNetworkError, CategoryNetwork, "network communication failed")
	ErrTimeout            = New(CodeTimeout, CategoryNetwork, "request timeout")
	ErrRateLimited        = New(CodeRateLimited, CategoryRateLimit, "rate limit exceeded")
	ErrServerError        = New(CodeServerError, CategoryNetwork, "server error")
	ErrInvalidCredentials = New(CodeInvalidCredentials, CategoryAuth, "invalid credentials")
	ErrUnauthorized       = New(CodeUnauthorized, CategoryAuth, "authentication required")
	ErrSendingFailed      = New(CodeSendingFailed, CategoryTransport, "message sending failed")
)

// IsValidationError checks if error is validation-related
func IsValidationError(err error) bool {
	if perr, ok := err.(*Error); ok {
		return perr.Category == CategoryValidation
	}
	return false
}

// IsStateError checks if error is client-state-related
func IsStateError(err error) bool {
	if perr, ok := err.(*Error); ok {
		return perr.Category == CategoryState
	}
	return false
}

// IsNetworkError checks if error is network-related
func IsNetworkError(err error) bool {
	if perr, ok := err.(*Error); ok {
		return perr.Category == CategoryNetwork
	}
	return false
}

// IsAuthError checks if error is authentication-related
func IsAuthError(err error) bool {
	if perr, ok := err.(*Error); ok {
		return perr.Category == CategoryAuth
	}
	return false
}

// IsRateLimitError checks if error is rate limit-related
func IsRateLimitError(err error) bool {
	if perr, ok := err.(*Error); ok {
		return perr.Category == CategoryRateLimit || perr.Code == CodeRateLimited
	}
	return false
}
