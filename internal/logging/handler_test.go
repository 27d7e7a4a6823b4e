package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONIncludesServiceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("reward-auth", "test", "", &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	logger.With("component", "auth").InfoContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "reward-auth", rec["service"])
	assert.Equal(t, "test", rec["version"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "auth", rec["component"])
	assert.Equal(t, "v", rec["k"])
}

func TestSetup_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("reward-auth", "test", "text", &buf)
	logger.WithGroup("g").Warn("careful", "n", 1)

	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN"), out)
	assert.Contains(t, out, "msg=careful")
	assert.Contains(t, out, "g.n=1")
	assert.NotContains(t, out, "request_id")
}

func TestRequestID_Empty(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}
