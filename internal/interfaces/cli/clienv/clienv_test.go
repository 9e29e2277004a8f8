package clienv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  "release",
		"prod":        "release",
		"development": "debug",
		"dev":         "debug",
		"test":        "test",
		"staging":     "release",
		"":            "release",
	}
	for env, want := range tests {
		assert.Equal(t, want, GinMode(env), env)
	}
}
