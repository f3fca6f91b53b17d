package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfiguration    ErrorType = "CONFIGURATION"
	ErrTypeDataInsufficient ErrorType = "DATA_INSUFFICIENCY"
	ErrTypeSource           ErrorType = "SOURCE"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeValidation       ErrorType = "VALIDATION"
)

// AppError represents an engine error with a category and structured context
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigurationError reports an internally inconsistent build, such as a
// row whose length disagrees with the column catalogue.
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfiguration, message, cause)
}

// NewDataInsufficiencyError reports that a primary series is too short to warm
// up the indicators.
func NewDataInsufficiencyError(instrument string, have, need int) *AppError {
	return NewAppError(ErrTypeDataInsufficient,
		fmt.Sprintf("%s has %d bars, need at least %d", instrument, have, need), nil).
		WithContext("instrument", instrument).
		WithContext("bars", have).
		WithContext("min_bars", need)
}

// NewSourceError wraps a failure to read an input series
func NewSourceError(source string, cause error) *AppError {
	return NewAppError(ErrTypeSource, fmt.Sprintf("failed to load %s", source), cause).
		WithContext("source", source)
}

// NewParsingError reports an input file that could not be decoded
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError reports an output that could not be written
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// TypeOf returns the category of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsConfigurationError reports whether err carries a configuration failure
func IsConfigurationError(err error) bool {
	return TypeOf(err) == ErrTypeConfiguration
}

// IsDataInsufficiency reports whether err carries a short-input failure
func IsDataInsufficiency(err error) bool {
	return TypeOf(err) == ErrTypeDataInsufficient
}
