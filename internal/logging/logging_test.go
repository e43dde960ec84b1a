package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("component", "test").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_DebugConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Debug: true, Output: &buf})

	log.Debug().Str("path", "a.png").Msg("candidate scored")

	assert.Contains(t, buf.String(), "candidate scored")
	assert.Contains(t, buf.String(), "path=a.png")
	assert.NotContains(t, buf.String(), "\x1b[")
}
