package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/protocol"
)

type sent struct {
	payload []byte
	chunked bool
	size    int
	at      time.Time
}

type recordingChannel struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (c *recordingChannel) Send(_ context.Context, payload []byte, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sent{payload: append([]byte(nil), payload...), at: time.Now()})
	return nil
}

func (c *recordingChannel) Write(ctx context.Context, data []byte) error {
	return c.Send(ctx, data, false)
}

func (c *recordingChannel) WriteChunked(_ context.Context, payload []byte, size int, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sent{payload: append([]byte(nil), payload...), chunked: true, size: size, at: time.Now()})
	return nil
}

func fastBLE() config.BLEConfig {
	cfg := config.Defaults().BLE
	cfg.StartDelay = 0
	cfg.SettingsDelay = 0
	cfg.ChunkDelay = 0
	return cfg
}

func TestSendColors(t *testing.T) {
	ch := &recordingChannel{}
	err := SendColors(context.Background(), ch, fastBLE(), protocol.NewColorSequence("red", "green"))
	require.NoError(t, err)
	require.Len(t, ch.sent, 1)
	assert.Equal(t, []byte{0x30, 0x32}, ch.sent[0].payload)
}

func TestSendColorsEmpty(t *testing.T) {
	ch := &recordingChannel{}
	err := SendColors(context.Background(), ch, fastBLE(), protocol.ColorSequence{})
	require.Error(t, err)
	assert.Empty(t, ch.sent)
}

func TestSendCommandWrapsError(t *testing.T) {
	notReady := errors.New("connection not ready")
	ch := &recordingChannel{err: notReady}
	err := SendCommand(context.Background(), ch, fastBLE(), protocol.CancelGame)
	require.ErrorIs(t, err, notReady)
	assert.Contains(t, err.Error(), "0xFF")
}

func TestPadByte(t *testing.T) {
	for n, want := range map[int]byte{1: protocol.PadOne, 2: protocol.PadTwo, 3: protocol.PadThree} {
		b, err := PadByte(n)
		require.NoError(t, err)
		assert.Equal(t, want, b)
	}
	_, err := PadByte(4)
	assert.Error(t, err)
}

func TestStartGameSequence(t *testing.T) {
	ch := &recordingChannel{}
	game := &api.Game{GameSummary: api.GameSummary{UID: "g1", Name: "Memory"}}
	settings := []api.Setting{{Name: "rounds", Value: "5"}}

	err := StartGame(context.Background(), ch, fastBLE(), game, settings, []byte("a\n\tb"))
	require.NoError(t, err)
	require.Len(t, ch.sent, 3)

	assert.Equal(t, []byte{protocol.StartGame}, ch.sent[0].payload)
	assert.Equal(t, "name=Memory;uid=g1;rounds=5;\n", string(ch.sent[1].payload))
	assert.True(t, ch.sent[2].chunked)
	assert.Equal(t, "abEOF", string(ch.sent[2].payload))
	assert.Equal(t, protocol.DefaultChunkSize, ch.sent[2].size)
}

func TestStartGameWaitsBetweenSteps(t *testing.T) {
	ch := &recordingChannel{}
	cfg := fastBLE()
	cfg.StartDelay = 30 * time.Millisecond
	game := &api.Game{GameSummary: api.GameSummary{UID: "g1", Name: "Memory"}}

	require.NoError(t, StartGame(context.Background(), ch, cfg, game, nil, nil))
	require.Len(t, ch.sent, 2)
	assert.GreaterOrEqual(t, ch.sent[1].at.Sub(ch.sent[0].at), 30*time.Millisecond)
}

func TestStartGameCancelled(t *testing.T) {
	ch := &recordingChannel{}
	cfg := fastBLE()
	cfg.StartDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	game := &api.Game{GameSummary: api.GameSummary{UID: "g1", Name: "Memory"}}
	err := StartGame(ctx, ch, cfg, game, nil, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, ch.sent, 1)
}
