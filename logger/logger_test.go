package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Info("dispatch_sent", "lead_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatch_sent", entry["msg"])
	assert.Equal(t, "abc", entry["lead_id"])
}

func TestDevelopmentEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug("already_processed")

	assert.Contains(t, buf.String(), "already_processed")
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")

	log.WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}
