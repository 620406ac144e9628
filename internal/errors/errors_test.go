package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingErrorMessages(t *testing.T) {
	err := NewNotFoundError("/data/missing.pdf")
	assert.Equal(t, ErrorNotFound, err.Code)
	assert.Equal(t, "File /data/missing.pdf does not exist", err.Text())
	assert.Equal(t, "NOT_FOUND: File /data/missing.pdf does not exist", err.Error())

	cause := fmt.Errorf("connection refused")
	backend := NewBackendFailureError("ollama", "a.png", cause)
	assert.Equal(t, ErrorBackendFailure, backend.Code)
	assert.Equal(t, "ollama failed: connection refused", backend.Text())
	assert.ErrorIs(t, backend, cause)
}

func TestWrapKeepsExistingCode(t *testing.T) {
	parse := NewParseFailureError("Could not parse JSON from response", nil)
	wrapped := Wrap("openai", "x.png", fmt.Errorf("decode: %w", parse))
	assert.Equal(t, ErrorParseFailure, wrapped.Code)

	plain := Wrap("openai", "x.png", errors.New("boom"))
	assert.Equal(t, ErrorBackendFailure, plain.Code)

	assert.Nil(t, Wrap("openai", "x.png", nil))
	assert.Same(t, parse, Wrap("openai", "x.png", parse))
}

func TestToMap(t *testing.T) {
	err := NewBackendFailureError("surya", "scan.png", errors.New("timeout"))
	m := err.ToMap()

	assert.Equal(t, "BACKEND_FAILURE", m["error_code"])
	assert.Equal(t, "surya failed", m["message"])
	assert.Equal(t, "surya", m["engine"])
	assert.Equal(t, "scan.png", m["path"])
	assert.Equal(t, "timeout", m["cause"])
}
