package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/commands"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/protocol"
)

type fakeMat struct {
	mu      sync.Mutex
	state   ble.State
	targets []ble.Target
	sent    [][]byte
	sendErr error
	updates chan ble.Update
}

func newFakeMat() *fakeMat {
	return &fakeMat{updates: make(chan ble.Update, 8)}
}

func (f *fakeMat) Start(_ context.Context, t ble.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, t)
	f.state = ble.StateScanning
	return nil
}

func (f *fakeMat) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = ble.StateIdle
	return nil
}

func (f *fakeMat) Send(_ context.Context, payload []byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeMat) Write(ctx context.Context, data []byte) error {
	return f.Send(ctx, data, false)
}

func (f *fakeMat) WriteChunked(ctx context.Context, data []byte, _ int, _ time.Duration) error {
	return f.Send(ctx, data, false)
}

func (f *fakeMat) Subscribe() (<-chan ble.Update, func()) {
	return f.updates, func() {}
}

func (f *fakeMat) State() ble.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func testModel(t *testing.T, code string) (Model, *fakeMat) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.Dir = t.TempDir()
	mat := newFakeMat()
	return NewModel(commands.NewEnv(cfg, nil), mat, code), mat
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestCodeEntryRejectsShortCode(t *testing.T) {
	m, mat := testModel(t, "")
	require.Equal(t, ViewCode, m.view)

	m, cmd := press(t, m, "1", "2", "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, ViewCode, m.view)
	assert.NotEmpty(t, m.errorMsg)
	assert.Empty(t, mat.targets)
}

func TestCodeEntryStartsScan(t *testing.T) {
	m, mat := testModel(t, "")

	m, cmd := press(t, m, "1", "2", "3", "4", "5", "6", "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, ViewMain, m.view)
	assert.Equal(t, "123456", m.code)

	msg := cmd()
	require.IsType(t, scanStartedMsg{}, msg)
	assert.NoError(t, msg.(scanStartedMsg).err)
	require.Len(t, mat.targets, 1)
	assert.Equal(t, "SL-123456", mat.targets[0].Filter.Pattern)
}

func TestUpdatesDriveStatus(t *testing.T) {
	m, _ := testModel(t, "123456")

	next, cmd := m.Update(bleUpdateMsg{update: ble.Update{
		State: ble.StateReady,
		Peer:  ble.PeerDescriptor{Name: "SL-123456"},
	}})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, ble.StateReady, m.state)
	assert.Contains(t, m.statusMsg, "SL-123456")
	assert.Contains(t, m.View(), "SL-123456")

	next, _ = m.Update(bleUpdateMsg{update: ble.Update{State: ble.StateDisconnected}})
	m = next.(Model)
	assert.Contains(t, m.statusMsg, "rescanning")

	st := protocol.Status{Value: 238, Ended: true}
	next, _ = m.Update(bleUpdateMsg{update: ble.Update{State: ble.StateReady, Status: &st}})
	m = next.(Model)
	assert.Equal(t, "Game ended", m.statusMsg)
}

func TestViewsRenderHeadersAndDescription(t *testing.T) {
	m, _ := testModel(t, "")
	assert.Contains(t, m.View(), "Enter the code shown on the mat hub.")
	assert.Contains(t, m.View(), "Offline")

	m, _ = testModel(t, "123456")
	m.view = ViewGameDetail
	m.game = &api.Game{GameSummary: api.GameSummary{UID: "memory", Name: "Memory", Description: "Repeat the sequence"}}
	out := m.View()
	assert.Contains(t, out, "Memory")
	assert.Contains(t, out, "Repeat the sequence")
}

func TestColourRoundSend(t *testing.T) {
	m, mat := testModel(t, "123456")
	m.view = ViewColors

	m, _ = press(t, m, "r", "g", "b")
	assert.Equal(t, []string{"red", "green", "blue"}, m.round.Names())

	m, cmd := press(t, m, "s")
	require.NotNil(t, cmd)
	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)

	require.Len(t, mat.sent, 1)
	assert.Equal(t, []byte{0x30, 0x32, 0x33}, mat.sent[0])
	assert.Equal(t, "Sent red,green,blue", m.statusMsg)

	m, _ = press(t, m, "x")
	assert.Equal(t, 0, m.round.Len())
}

func TestSendWhileNotReady(t *testing.T) {
	m, mat := testModel(t, "123456")
	mat.sendErr = ble.ErrNotReady
	m.view = ViewColors

	m, cmd := press(t, m, "y", "s")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Not connected to the mats yet", m.errorMsg)
}

func TestSavePresetFromRound(t *testing.T) {
	m, _ := testModel(t, "123456")
	m.view = ViewColors

	m, cmd := press(t, m, "r", "y", "w")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, presetSavedMsg{}, msg)
	require.NoError(t, msg.(presetSavedMsg).err)

	next, reload := m.Update(msg)
	m = next.(Model)
	assert.Contains(t, m.statusMsg, "Saved preset")

	next, _ = m.Update(reload())
	m = next.(Model)
	require.Len(t, m.presets, 1)
	assert.Equal(t, []string{"red", "yellow"}, m.presets[0].Colors)
}

func TestPadKeySendsSelectByte(t *testing.T) {
	m, mat := testModel(t, "123456")

	_, cmd := press(t, m, "2")
	require.NotNil(t, cmd)
	cmd()
	require.Len(t, mat.sent, 1)
	assert.Equal(t, []byte{protocol.PadTwo}, mat.sent[0])
}

func TestQuitFromMain(t *testing.T) {
	m, _ := testModel(t, "123456")
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
