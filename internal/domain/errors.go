package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies domain-specific errors
type ErrorType string

const (
	ErrorTypeRasterization ErrorType = "rasterization"
	ErrorTypeRecognition   ErrorType = "recognition"
	ErrorTypeThrottle      ErrorType = "throttle"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeIO            ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func RasterizationError(message string, err error) *DomainError {
	return NewError(ErrorTypeRasterization, message, err)
}

func RecognitionError(message string, err error) *DomainError {
	return NewError(ErrorTypeRecognition, message, err)
}

func ThrottleError(message string, err error) *DomainError {
	return NewError(ErrorTypeThrottle, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err carries the given domain error type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// IsThrottle reports whether err is a transient rate-limit failure.
func IsThrottle(err error) bool {
	return IsType(err, ErrorTypeThrottle)
}
