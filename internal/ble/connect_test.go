package ble

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropLateLinkLogsDisconnectError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	called := false
	dropLateLink(logger, "AA:BB:CC:DD:EE:01", func() error {
		called = true
		return errors.New("not connected")
	})

	assert.True(t, called)
	assert.Contains(t, buf.String(), "disconnect late link")
	assert.Contains(t, buf.String(), "not connected")
	assert.Contains(t, buf.String(), "AA:BB:CC:DD:EE:01")
}

func TestDropLateLinkQuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dropLateLink(logger, "AA:BB:CC:DD:EE:01", func() error { return nil })
	assert.Empty(t, buf.String())
}
