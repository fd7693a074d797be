package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "format error type", errType: ErrTypeFormat, expected: "FORMAT"},
		{name: "schema error type", errType: ErrTypeSchema, expected: "SCHEMA"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "render error type", errType: ErrTypeRender, expected: "RENDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewAppError(ErrTypeConfig, "bad level", nil),
			expected: "[CONFIG] bad level",
		},
		{
			name:     "with cause",
			err:      NewFormatError("sales.xlsx", fmt.Errorf("zip: not a valid zip file")),
			expected: "[FORMAT] sales.xlsx is not a readable table: zip: not a valid zip file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewNotFoundError("missing.xlsx", os.ErrNotExist)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "missing.xlsx", err.Context["path"])
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("load input: %w", NewNotFoundError("a.xlsx", nil))

	assert.True(t, IsType(wrapped, ErrTypeNotFound))
	assert.False(t, IsType(wrapped, ErrTypeFormat))
	assert.False(t, IsType(errors.New("plain"), ErrTypeNotFound))
	assert.True(t, IsType(fmt.Errorf("clean: %w", NewSchemaError([]string{"Revenue"})), ErrTypeSchema))
}

func TestSchemaError(t *testing.T) {
	missing := []string{"Product", "Revenue"}
	err := NewSchemaError(missing)
	missing[0] = "changed"

	var schemaErr *SchemaError
	require.True(t, errors.As(fmt.Errorf("clean: %w", err), &schemaErr))
	assert.Equal(t, []string{"Product", "Revenue"}, schemaErr.MissingColumns)
	assert.Equal(t, "[SCHEMA] missing required columns: Product, Revenue", err.Error())
}
