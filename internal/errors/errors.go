package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDeckNotFound       = "DECK_NOT_FOUND"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeCardNotFound       = "CARD_NOT_FOUND"
	ErrCodeDocumentNotFound   = "DOCUMENT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNoToken            = "NO_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable        = "SERVICE_UNAVAILABLE"
	ErrCodeUpstream           = "UPSTREAM_ERROR"

	ErrCodeNoFile              = "NO_FILE"
	ErrCodeUnsupportedFile     = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeInsufficientContent = "INSUFFICIENT_CONTENT"
	ErrCodeNoTextContent       = "NO_TEXT_CONTENT"
)

var notFoundCodes = map[string]string{
	"deck":          ErrCodeDeckNotFound,
	"study session": ErrCodeSessionNotFound,
	"card":          ErrCodeCardNotFound,
	"document":      ErrCodeDocumentNotFound,
	"user":          ErrCodeUserNotFound,
}

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // stable machine-readable code
	Message string // safe to show to clients
	Status  int    // HTTP status code
	Details any    // optional structured payload, e.g. field errors
	Err     error  // wrapped cause, never serialized
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode overrides the error code on a copy of e.
func (e *AppError) WithCode(code string) *AppError {
	c := *e
	c.Code = code
	return &c
}

// WithDetails attaches a structured payload on a copy of e.
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewNotFoundError reports a missing or foreign entity. Ownership failures use the
// same error so existence is never revealed to non-owners.
func NewNotFoundError(resource string, id any) *AppError {
	code, ok := notFoundCodes[resource]
	if !ok {
		code = ErrCodeNotFound
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
		Details: []FieldError{{Field: field, Reason: reason}},
	}
}

// NewValidationErrors folds several field errors into one VALIDATION_ERROR.
func NewValidationErrors(fields []FieldError) *AppError {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return &AppError{
		Code:    ErrCodeValidation,
		Message: "validation failed for " + strings.Join(names, ", "),
		Status:  http.StatusBadRequest,
		Details: fields,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NewUnauthorizedError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func NewTooManyRequestsError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func NewUnavailableError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}

// NewUpstreamError wraps a failure of an external dependency such as the LLM API.
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUpstream,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func NewPayloadTooLargeError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusRequestEntityTooLarge,
	}
}
