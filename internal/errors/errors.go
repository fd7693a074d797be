package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeFormat   ErrorType = "FORMAT"
	ErrTypeSchema   ErrorType = "SCHEMA"
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeStorage  ErrorType = "STORAGE"
	ErrTypeRender   ErrorType = "RENDER"
)

// AppError represents an application-specific error
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

// NewNotFoundError reports an input path that does not exist.
func NewNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", path), cause).
		WithContext("path", path)
}

// NewFormatError reports a file that exists but is not readable as tabular data.
func NewFormatError(path string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, fmt.Sprintf("%s is not a readable table", path), cause).
		WithContext("path", path)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewRenderError wraps a chart rendering failure for the given output path.
func NewRenderError(path string, cause error) *AppError {
	return NewAppError(ErrTypeRender, fmt.Sprintf("render %s", path), cause).
		WithContext("path", path)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err, or any error it wraps, is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	var schemaErr *SchemaError
	return errType == ErrTypeSchema && errors.As(err, &schemaErr)
}

// SchemaError lists every required column absent from an input table.
type SchemaError struct {
	MissingColumns []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("[%s] missing required columns: %s", ErrTypeSchema, strings.Join(e.MissingColumns, ", "))
}

// NewSchemaError creates a schema error for the given missing columns.
func NewSchemaError(missing []string) *SchemaError {
	cols := make([]string, len(missing))
	copy(cols, missing)
	return &SchemaError{MissingColumns: cols}
}
