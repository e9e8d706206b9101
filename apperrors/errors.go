package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for boundary handling.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidTransition    Kind = "INVALID_STATE_TRANSITION"
	KindDuplicateRequest     Kind = "DUPLICATE_REQUEST"
	KindProviderConnectivity Kind = "PROVIDER_CONNECTIVITY_ERROR"
	KindEncryption           Kind = "ENCRYPTION_ERROR"
	KindCallbackDelivery     Kind = "CALLBACK_DELIVERY_FAILURE"
	KindInternal             Kind = "INTERNAL_ERROR"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so sentinel comparisons survive wrapping
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{Code: code, Kind: kind, Message: message, Err: err}
}

// Validation is a malformed/missing-input error; not retried, surfaced to caller.
func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, KindValidation, fmt.Sprintf(format, args...), nil)
}

// NotFound reports an unknown order/payment/channel/provider.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, KindNotFound, fmt.Sprintf(format, args...), nil)
}

// InvalidTransition reports a status change absent from the transition table.
func InvalidTransition(from, to string) *Error {
	return New(http.StatusConflict, KindInvalidTransition,
		fmt.Sprintf("Invalid status transition from %s to %s", from, to), nil)
}

// ProviderConnectivity reports a failed provider credential test or call.
func ProviderConnectivity(message string, err error) *Error {
	return New(http.StatusUnprocessableEntity, KindProviderConnectivity, message, err)
}

// Encryption reports malformed stored ciphertext or a missing passphrase.
// Fatal for the record, never for the process.
func Encryption(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindEncryption, message, err)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// Sentinels for errors.Is checks.
var (
	ErrValidation           = &Error{Code: http.StatusBadRequest, Kind: KindValidation, Message: "Validation error"}
	ErrNotFound             = &Error{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Not found"}
	ErrInvalidTransition    = &Error{Code: http.StatusConflict, Kind: KindInvalidTransition, Message: "Invalid state transition"}
	ErrDuplicateRequest     = &Error{Code: http.StatusConflict, Kind: KindDuplicateRequest, Message: "Duplicate request in flight"}
	ErrProviderConnectivity = &Error{Code: http.StatusUnprocessableEntity, Kind: KindProviderConnectivity, Message: "Provider connectivity error"}
	ErrEncryption           = &Error{Code: http.StatusInternalServerError, Kind: KindEncryption, Message: "Encryption error"}
	ErrCallbackDelivery     = &Error{Code: http.StatusBadGateway, Kind: KindCallbackDelivery, Message: "Callback delivery failure"}
)

// From normalizes any error into an *Error for boundary translation.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// ErrorMiddleware translates errors attached to the gin context into the
// structured error response shape.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := From(c.Errors.Last().Err)
		c.JSON(appErr.Code, gin.H{
			"success": false,
			"error": gin.H{
				"message": appErr.Message,
				"code":    string(appErr.Kind),
			},
		})
		c.Abort()
	}
}
