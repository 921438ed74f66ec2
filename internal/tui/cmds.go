package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/commands"
	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

// --- Async commands for BLE operations ---

// waitForUpdate delivers the next connection manager update.
func waitForUpdate(updates <-chan ble.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		return bleUpdateMsg{update: u, closed: !ok}
	}
}

// startScanCmd (re)starts scanning for the mat showing code.
func startScanCmd(mat Mat, env *commands.Env, code string) tea.Cmd {
	return func() tea.Msg {
		target, err := commands.TargetFor(env.Config.BLE, code)
		if err != nil {
			return scanStartedMsg{err: err}
		}
		ctx := context.Background()
		if mat.State() != ble.StateIdle {
			if err := mat.Stop(ctx); err != nil {
				return scanStartedMsg{err: err}
			}
		}
		return scanStartedMsg{err: mat.Start(ctx, target)}
	}
}

func sendColorsCmd(mat Mat, env *commands.Env, round protocol.ColorSequence) tea.Cmd {
	seq := protocol.NewColorSequence(round.Names()...)
	return func() tea.Msg {
		err := commands.SendColors(context.Background(), mat, env.Config.BLE, seq)
		return sentMsg{what: roundLabel(seq), err: err}
	}
}

func sendCommandCmd(mat Mat, env *commands.Env, b byte, what string) tea.Cmd {
	return func() tea.Msg {
		err := commands.SendCommand(context.Background(), mat, env.Config.BLE, b)
		return sentMsg{what: what, err: err}
	}
}

func sendPresetCmd(mat Mat, env *commands.Env, entry store.IndexEntry) tea.Cmd {
	seq := protocol.NewColorSequence(entry.Colors...)
	return func() tea.Msg {
		err := commands.SendColors(context.Background(), mat, env.Config.BLE, seq)
		what := entry.Name
		if what == "" {
			what = roundLabel(seq)
		}
		return sentMsg{what: what, err: err}
	}
}

// startGameCmd downloads the game program and runs the start sequence,
// reporting each step as progress.
func startGameCmd(env *commands.Env, mat Mat, game *api.Game) tea.Cmd {
	ch := make(chan tea.Msg, 4)
	go func() {
		defer close(ch)
		ctx := context.Background()

		settings, err := game.Settings(nil)
		if err != nil {
			ch <- progressErrorMsg{err: err}
			return
		}

		ch <- progressUpdateMsg{percent: 0.2, description: "Downloading program...", ch: ch}
		cache, err := env.ProgramCache()
		if err != nil {
			env.Logger.Warn("program cache unavailable", "error", err)
		}
		code, err := commands.FetchProgram(ctx, env.Catalog(), cache, env.Logger, game)
		if err != nil {
			ch <- progressErrorMsg{err: err}
			return
		}

		ch <- progressUpdateMsg{percent: 0.5, description: "Sending to mats...", ch: ch}
		if err := commands.StartGame(ctx, mat, env.Config.BLE, game, settings, code); err != nil {
			ch <- progressErrorMsg{err: err}
			return
		}
		ch <- progressCompleteMsg{message: "Started " + game.Name}
	}()
	return listenProgress(ch)
}

// --- Catalog and store ---

func fetchGamesCmd(catalog *api.Client) tea.Cmd {
	return func() tea.Msg {
		games, err := catalog.ListGames(context.Background())
		return gamesMsg{games: games, err: err}
	}
}

func fetchGameCmd(catalog *api.Client, uid string) tea.Cmd {
	return func() tea.Msg {
		g, err := catalog.GetGame(context.Background(), uid)
		return gameMsg{game: g, err: err}
	}
}

func loadPresetsCmd(env *commands.Env) tea.Cmd {
	return func() tea.Msg {
		s, err := env.Store()
		if err != nil {
			return presetsMsg{err: err}
		}
		entries, err := s.List()
		return presetsMsg{entries: entries, err: err}
	}
}

func savePresetCmd(env *commands.Env, round protocol.ColorSequence) tea.Cmd {
	seq := protocol.NewColorSequence(round.Names()...)
	return func() tea.Msg {
		s, err := env.Store()
		if err != nil {
			return presetSavedMsg{err: err}
		}
		hash, err := commands.SavePreset(io.Discard, s, seq, "", "tui")
		return presetSavedMsg{hash: hash, err: err}
	}
}
