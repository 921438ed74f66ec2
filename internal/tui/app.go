package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/commands"
)

// Run starts the TUI application on the system Bluetooth adapter.
func Run(env *commands.Env, code string) error {
	sess, err := commands.OpenSession(env, ble.NewTinyGoRadio(env.Logger.With("component", "radio")))
	if err != nil {
		return err
	}
	defer sess.Close()

	m := NewModel(env, sess, code)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}

	return nil
}
