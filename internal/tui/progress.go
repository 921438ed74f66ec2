package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgressState tracks a multi-step upload such as a game start.
type ProgressState struct {
	progress    progress.Model
	percent     float64
	description string
	isActive    bool
}

func NewProgressState() ProgressState {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)
	return ProgressState{
		progress: p,
	}
}

// Start begins tracking a new operation.
func (p *ProgressState) Start(description string) {
	p.isActive = true
	p.percent = 0
	p.description = description
}

// Update sets the fraction done (0.0 to 1.0).
func (p *ProgressState) Update(percent float64, description string) {
	p.percent = percent
	if description != "" {
		p.description = description
	}
}

// Complete marks the operation as complete.
func (p *ProgressState) Complete() {
	p.percent = 1.0
	p.isActive = false
}

// Cancel stops the progress without completing.
func (p *ProgressState) Cancel() {
	p.isActive = false
}

func (p *ProgressState) IsActive() bool {
	return p.isActive
}

func (p ProgressState) View() string {
	if !p.isActive {
		return ""
	}
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return descStyle.Render(p.description) + "\n" + p.progress.ViewAs(p.percent)
}

// progressUpdateMsg reports one step of a running operation. The
// operation keeps sending on ch until it closes it.
type progressUpdateMsg struct {
	percent     float64
	description string
	ch          <-chan tea.Msg
}

// progressCompleteMsg signals an operation completed.
type progressCompleteMsg struct {
	message string
}

// progressErrorMsg signals an operation failed.
type progressErrorMsg struct {
	err error
}

// listenProgress waits for the next message from a running operation.
func listenProgress(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
