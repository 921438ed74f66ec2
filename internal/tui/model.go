package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/commands"
	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

// View represents different screens in the TUI.
type View int

const (
	ViewCode View = iota
	ViewMain
	ViewColors
	ViewGames
	ViewGameDetail
	ViewPresets
)

// MenuItem represents a menu option.
type MenuItem struct {
	Title       string
	Description string
	View        View
}

// Mat is the connection the TUI drives. *commands.Session satisfies it.
type Mat interface {
	Start(ctx context.Context, t ble.Target) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, payload []byte, lineEnding bool) error
	Write(ctx context.Context, data []byte) error
	WriteChunked(ctx context.Context, data []byte, size int, delay time.Duration) error
	Subscribe() (<-chan ble.Update, func())
	State() ble.State
}

// Model is the main Bubbletea model for the TUI.
type Model struct {
	env         *commands.Env
	mat         Mat
	updates     <-chan ble.Update
	unsubscribe func()

	// State
	view          View
	cursor        int
	cursorHistory map[View]int // Remember cursor position per view
	menuItems     []MenuItem
	width         int
	height        int

	// Connection
	state      ble.State
	code       string
	peerName   string
	lastStatus string
	errorMsg   string
	statusMsg  string

	codeInput textinput.Model
	round     protocol.ColorSequence

	// Catalog
	games        []api.GameSummary
	gamesLoading bool
	game         *api.Game
	gameLoading  bool

	presets []store.IndexEntry

	progress ProgressState

	// Components
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	styles  Styles
}

// --- Custom messages for async operations ---

// bleUpdateMsg carries one connection manager update.
type bleUpdateMsg struct {
	update ble.Update
	closed bool
}

// scanStartedMsg signals the result of Start.
type scanStartedMsg struct {
	err error
}

// sentMsg signals a write finished.
type sentMsg struct {
	what string
	err  error
}

type gamesMsg struct {
	games []api.GameSummary
	err   error
}

type gameMsg struct {
	game *api.Game
	err  error
}

type presetsMsg struct {
	entries []store.IndexEntry
	err     error
}

type presetSavedMsg struct {
	hash string
	err  error
}

// NewModel creates a new TUI model. A non-empty code starts scanning
// straight away; otherwise the code entry screen comes first.
func NewModel(env *commands.Env, mat Mat, code string) Model {
	h := help.New()
	h.ShowAll = false // Use ShortHelp for horizontal layout

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	ti := textinput.New()
	ti.Placeholder = "123456"
	ti.Prompt = "Code: "
	ti.CharLimit = 6
	ti.Width = 10

	updates, unsubscribe := mat.Subscribe()

	m := Model{
		env:           env,
		mat:           mat,
		updates:       updates,
		unsubscribe:   unsubscribe,
		view:          ViewCode,
		cursorHistory: make(map[View]int),
		state:         mat.State(),
		code:          code,
		codeInput:     ti,
		progress:      NewProgressState(),
		keys:          DefaultKeyMap(),
		help:          h,
		spinner:       s,
		styles:        DefaultStyles(),
	}

	m.menuItems = []MenuItem{
		{
			Title:       "Colours",
			Description: "Build a colour round and send it to the mats",
			View:        ViewColors,
		},
		{
			Title:       "Games",
			Description: "Browse the catalog and start a game",
			View:        ViewGames,
		},
		{
			Title:       "Presets",
			Description: "Saved colour rounds",
			View:        ViewPresets,
		},
	}

	if code != "" {
		m.view = ViewMain
	} else {
		m.codeInput.Focus()
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForUpdate(m.updates), m.spinner.Tick, loadPresetsCmd(m.env)}
	if m.code != "" {
		cmds = append(cmds, startScanCmd(m.mat, m.env, m.code))
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bleUpdateMsg:
		if msg.closed {
			m.state = ble.StateIdle
			m.errorMsg = "Connection manager stopped"
			return m, nil
		}
		m.applyUpdate(msg.update)
		return m, waitForUpdate(m.updates)

	case scanStartedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ble.ErrAdapterUnavailable) {
				m.errorMsg = "Bluetooth unavailable. Turn it on and press 'c' to retry."
			} else {
				m.errorMsg = fmt.Sprintf("Scan failed: %v", msg.err)
			}
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = ""
		return m, nil

	case sentMsg:
		if msg.err != nil {
			if errors.Is(msg.err, ble.ErrNotReady) {
				m.errorMsg = "Not connected to the mats yet"
			} else {
				m.errorMsg = fmt.Sprintf("Send failed: %v", msg.err)
			}
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = "Sent " + msg.what
		return m, nil

	case gamesMsg:
		m.gamesLoading = false
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Catalog: %v", msg.err)
			return m, nil
		}
		m.games = msg.games
		return m, nil

	case gameMsg:
		m.gameLoading = false
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Catalog: %v", msg.err)
			return m, nil
		}
		m.game = msg.game
		return m, nil

	case presetsMsg:
		if msg.err == nil {
			m.presets = msg.entries
		}
		return m, nil

	case presetSavedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Save failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Saved preset " + store.ShortHash(msg.hash)
		return m, loadPresetsCmd(m.env)

	case progressUpdateMsg:
		m.progress.Update(msg.percent, msg.description)
		return m, listenProgress(msg.ch)

	case progressCompleteMsg:
		m.progress.Complete()
		m.errorMsg = ""
		m.statusMsg = msg.message
		return m, nil

	case progressErrorMsg:
		m.progress.Cancel()
		m.errorMsg = msg.err.Error()
		return m, nil
	}

	if m.view == ViewCode {
		var cmd tea.Cmd
		m.codeInput, cmd = m.codeInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyUpdate(u ble.Update) {
	m.state = u.State
	if u.Peer.Name != "" {
		m.peerName = u.Peer.Name
	}

	if u.Status != nil {
		m.lastStatus = u.Status.String()
		if u.Status.Ended {
			m.statusMsg = "Game ended"
		}
		return
	}
	if u.Err != nil {
		m.errorMsg = u.Err.Error()
		return
	}

	switch u.State {
	case ble.StateReady:
		m.errorMsg = ""
		m.statusMsg = "Connected to " + m.peerName
	case ble.StateDisconnected:
		m.statusMsg = "Link lost, rescanning..."
	case ble.StateIdle:
		m.peerName = ""
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}
	if m.view == ViewCode {
		return m.handleCodeKey(msg)
	}

	switch m.view {
	case ViewColors:
		if model, cmd, ok := m.handleColorKey(msg); ok {
			return model, cmd
		}
	case ViewPresets:
		if key.Matches(msg, m.keys.Send) && m.cursor < len(m.presets) {
			return m, sendPresetCmd(m.mat, m.env, m.presets[m.cursor])
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.view == ViewMain {
			m.shutdown()
			return m, tea.Quit
		}
		// Go back to main
		m.view = ViewMain
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Back):
		return m.goBack()

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		if m.cursor < 0 {
			m.cursor = m.maxCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		if m.cursor > m.maxCursor() {
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.handleSelect()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = "Refreshed"
		if m.view == ViewGames {
			m.gamesLoading = true
			return m, fetchGamesCmd(m.env.Catalog())
		}
		return m, loadPresetsCmd(m.env)

	case key.Matches(msg, m.keys.Connect):
		m.view = ViewCode
		m.codeInput.SetValue("")
		m.errorMsg = ""
		cmd := m.codeInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Pad):
		n := int(msg.String()[0] - '0')
		b, err := commands.PadByte(n)
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		return m, sendCommandCmd(m.mat, m.env, b, fmt.Sprintf("pad %d", n))

	case key.Matches(msg, m.keys.Cancel):
		return m, sendCommandCmd(m.mat, m.env, protocol.CancelGame, "cancel")
	}

	return m, nil
}

func (m Model) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		code := strings.TrimSpace(m.codeInput.Value())
		if err := ble.ValidateCode(code); err != nil {
			m.errorMsg = "Enter the 4-6 character code shown on the mat hub"
			return m, nil
		}
		m.code = code
		m.errorMsg = ""
		m.view = ViewMain
		m.codeInput.Blur()
		return m, startScanCmd(m.mat, m.env, code)
	case "esc":
		if m.code == "" {
			m.shutdown()
			return m, tea.Quit
		}
		m.view = ViewMain
		m.codeInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

// handleColorKey handles the round builder keys; ok is false for keys
// it does not own.
func (m Model) handleColorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Red):
		m.round.Add(protocol.Red)
	case key.Matches(msg, m.keys.Yellow):
		m.round.Add(protocol.Yellow)
	case key.Matches(msg, m.keys.Green):
		m.round.Add(protocol.Green)
	case key.Matches(msg, m.keys.Blue):
		m.round.Add(protocol.Blue)
	case key.Matches(msg, m.keys.Clear):
		m.round.Reset()
	case key.Matches(msg, m.keys.Send):
		if m.round.Len() == 0 {
			m.errorMsg = "Pick at least one colour"
			return m, nil, true
		}
		return m, sendColorsCmd(m.mat, m.env, m.round), true
	case key.Matches(msg, m.keys.Save):
		if m.round.Len() == 0 {
			m.errorMsg = "Pick at least one colour"
			return m, nil, true
		}
		return m, savePresetCmd(m.env, m.round), true
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewGameDetail:
		m.view = ViewGames
		m.cursor = m.cursorHistory[ViewGames]
	case ViewMain:
		return m, nil
	default:
		m.view = ViewMain
		m.cursor = m.cursorHistory[ViewMain]
	}
	return m, nil
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	m.cursorHistory[m.view] = m.cursor

	switch m.view {
	case ViewMain:
		if m.cursor >= len(m.menuItems) {
			return m, nil
		}
		m.view = m.menuItems[m.cursor].View
		m.cursor = 0
		m.errorMsg = ""
		if m.view == ViewGames && len(m.games) == 0 {
			m.gamesLoading = true
			return m, fetchGamesCmd(m.env.Catalog())
		}
		return m, nil

	case ViewGames:
		if m.cursor >= len(m.games) {
			return m, nil
		}
		m.view = ViewGameDetail
		m.game = nil
		m.gameLoading = true
		return m, fetchGameCmd(m.env.Catalog(), m.games[m.cursor].UID)

	case ViewGameDetail:
		if m.game == nil || m.progress.IsActive() {
			return m, nil
		}
		m.progress.Start("Starting " + m.game.Name)
		return m, startGameCmd(m.env, m.mat, m.game)

	case ViewPresets:
		if m.cursor >= len(m.presets) {
			return m, nil
		}
		m.round = protocol.NewColorSequence(m.presets[m.cursor].Colors...)
		m.view = ViewColors
		m.cursor = 0
		return m, nil
	}
	return m, nil
}

func (m Model) maxCursor() int {
	n := 0
	switch m.view {
	case ViewMain:
		n = len(m.menuItems)
	case ViewGames:
		n = len(m.games)
	case ViewPresets:
		n = len(m.presets)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func (m Model) shutdown() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
