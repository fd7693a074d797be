package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1.005, "1.00"},
		{-4.2, "-4.20"},
		{1250.5, "1250.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFloat(tt.in))
	}
}

func TestFormatOptional(t *testing.T) {
	v := 3.14159
	assert.Equal(t, "3.14", formatOptional(&v))
	assert.Equal(t, "", formatOptional(nil))
	assert.Equal(t, "42", formatInt(42))
}
