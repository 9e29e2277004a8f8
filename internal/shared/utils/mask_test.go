package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jane@example.com", "j***@example.com"},
		{"j@example.com", "j***@example.com"},
		{"not-an-email", "***"},
		{"trailing@", "***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in), tt.in)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "xoxb***", MaskSecret("xoxb-123-456", 4))
	assert.Equal(t, "***", MaskSecret("abc", 4))
}
