package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when an unexpected infrastructure failure occurs.
var ErrInternal = errors.New("internal error")

// ErrConflict signals contention on an exclusive resource. The caller may retry.
var ErrConflict = errors.New("conflicting concurrent operation")

// Ledger state errors.
var (
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrUnbalanced         = errors.New("journal entry does not balance")
	ErrEmptyEntry         = errors.New("journal entry must have at least two lines")
	ErrInvalidLine        = errors.New("invalid journal line")
	ErrAlreadyReversed    = errors.New("journal entry already reversed")
	ErrPeriodClosed       = errors.New("accounting period is closed")
	ErrYearClosed         = errors.New("fiscal year is permanently closed")
	ErrAlreadyClosed      = errors.New("accounting period already closed")
	ErrNotClosed          = errors.New("accounting period is not closed")
	ErrOpenDraftsExist    = errors.New("draft entries remain in period")
	ErrYearAlreadyClosed  = errors.New("fiscal year already closed")
	ErrPriorYearNotClosed = errors.New("prior fiscal year is not closed")
	ErrAlreadySubmitted   = errors.New("VAT calculation already submitted")
)

// ErrExternalProvider marks a failed or timed out bank provider call.
var ErrExternalProvider = errors.New("bank provider failure")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInternal) match infrastructure failures.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= http.StatusInternalServerError
}

// HTTPStatus maps an error from the core to a transport status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmptyEntry),
		errors.Is(err, ErrInvalidLine):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnbalanced):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrAlreadyReversed),
		errors.Is(err, ErrPeriodClosed),
		errors.Is(err, ErrYearClosed),
		errors.Is(err, ErrAlreadyClosed),
		errors.Is(err, ErrNotClosed),
		errors.Is(err, ErrOpenDraftsExist),
		errors.Is(err, ErrYearAlreadyClosed),
		errors.Is(err, ErrPriorYearNotClosed),
		errors.Is(err, ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, ErrExternalProvider):
		return http.StatusBadGateway
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code > 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
