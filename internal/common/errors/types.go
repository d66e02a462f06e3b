// Package errors defines the typed errors shared by the stores, the cache and
// the HTTP layer. Callers branch on the ErrorType rather than on message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType classifies an AppError.
type ErrorType string

const (
	ErrTypeConnection ErrorType = "connection"
	ErrTypeValidation ErrorType = "validation"
	ErrTypeConfig     ErrorType = "config"
	// ErrTypeNotFound is a missing key or resource.
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeQuota means the store has no room left for a write.
	ErrTypeQuota ErrorType = "quota"
	// ErrTypeSerialization is a value that could not be encoded or decoded.
	ErrTypeSerialization ErrorType = "serialization"
	// ErrTypeStore covers backend failures that are neither quota nor not-found.
	ErrTypeStore    ErrorType = "store"
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error renders "type: message", followed by the code, the cause and the
// context sorted by key when they are set.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, ": code=%s", e.Code)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": cause=%v", e.Cause)
	}
	if len(e.Context) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString(": context={")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
	}
	b.WriteString("}")
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records key=value on e and returns e.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode sets a machine-readable code and returns e.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

func newError(t ErrorType, msg string, cause error) *AppError {
	return &AppError{Type: t, Message: msg, Cause: cause}
}

// ConnectionError reports a backend that could not be reached. Store
// construction retries only this type.
func ConnectionError(msg string, cause error) *AppError {
	return newError(ErrTypeConnection, msg, cause)
}

func ValidationError(msg string) *AppError {
	return newError(ErrTypeValidation, msg, nil)
}

func ConfigError(msg string) *AppError {
	return newError(ErrTypeConfig, msg, nil)
}

// NotFoundError reports "<resource> not found".
func NotFoundError(resource string) *AppError {
	return newError(ErrTypeNotFound, resource+" not found", nil)
}

// QuotaError reports a write refused for lack of space. The cache reacts by
// running a cleanup and retrying once.
func QuotaError(msg string, cause error) *AppError {
	return newError(ErrTypeQuota, msg, cause)
}

func SerializationError(msg string, cause error) *AppError {
	return newError(ErrTypeSerialization, msg, cause)
}

func StoreError(msg string, cause error) *AppError {
	return newError(ErrTypeStore, msg, cause)
}

func InternalError(msg string, cause error) *AppError {
	return newError(ErrTypeInternal, msg, cause)
}

// IsType reports whether err, or anything it wraps, is an AppError of errType.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == errType
}

// GetType returns the type of the first AppError in err's chain. Plain errors
// are internal; a nil error has no type.
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrTypeInternal
}
