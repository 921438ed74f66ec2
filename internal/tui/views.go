package tui

import (
	"fmt"
	"strings"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

func (m Model) View() string {
	var content string

	switch m.view {
	case ViewCode:
		content = m.viewCode()
	case ViewMain:
		content = m.viewMain()
	case ViewColors:
		content = m.viewColors()
	case ViewGames:
		content = m.viewGames()
	case ViewGameDetail:
		content = m.viewGameDetail()
	case ViewPresets:
		content = m.viewPresets()
	default:
		content = "Unknown view"
	}

	var footer strings.Builder
	if m.errorMsg != "" {
		footer.WriteString(m.styles.Error.Render(m.errorMsg))
		footer.WriteString("\n")
	} else if m.statusMsg != "" {
		footer.WriteString(m.styles.Success.Render(m.statusMsg))
		footer.WriteString("\n")
	}

	// Help
	helpView := m.styles.Help.Render(m.help.View(m.keys))

	return m.styles.App.Render(
		content + "\n" + footer.String() + helpView,
	)
}

func (m Model) viewCode() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("SoundLeap"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Enter the code shown on the mat hub."))
	b.WriteString("\n\n")
	b.WriteString(m.codeInput.View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("enter connect • esc back"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewMain() string {
	var b strings.Builder

	// Title bar with connection status
	b.WriteString(m.renderTitleBar("SoundLeap"))
	b.WriteString("\n")

	for i, item := range m.menuItems {
		desc := item.Description
		if item.View == ViewPresets {
			desc = fmt.Sprintf("%s (%d saved)", item.Description, len(m.presets))
		}

		if i == m.cursor {
			b.WriteString(m.styles.MenuItemSelected.Render("> " + item.Title))
		} else {
			b.WriteString(m.styles.MenuItem.Render("  " + item.Title))
		}
		b.WriteString("\n")
		b.WriteString(m.styles.MenuItemDim.Render(desc))
		b.WriteString("\n\n")
	}

	if m.lastStatus != "" {
		b.WriteString(m.renderField("Hub", m.lastStatus))
	}
	return b.String()
}

// renderTitleBar renders a consistent title bar with connection status.
func (m Model) renderTitleBar(title string) string {
	parts := []string{m.styles.Title.Render(title)}

	switch m.state {
	case ble.StateScanning:
		parts = append(parts, m.spinner.View()+" "+m.styles.Warning.Render("Scanning for "+m.code+"..."))
	case ble.StateConnecting:
		parts = append(parts, m.spinner.View()+" "+m.styles.Warning.Render("Connecting..."))
	case ble.StateReady:
		parts = append(parts, m.styles.StatusOnline.Render("●"))
		parts = append(parts, m.styles.Muted.Render(m.peerName))
	case ble.StateDisconnected:
		parts = append(parts, m.styles.Warning.Render("◌ Link lost"))
	default:
		parts = append(parts, m.styles.StatusOffline.Render("○ Offline"))
	}

	return m.styles.TitleBar.Render(strings.Join(parts, "  "))
}

func (m Model) viewColors() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Colour Round"))
	b.WriteString("\n")

	if m.round.Len() == 0 {
		b.WriteString(m.styles.Muted.Render("No colours yet. Press r, y, g or b."))
	} else {
		b.WriteString(m.renderRound(m.round))
	}
	b.WriteString("\n\n")

	for _, name := range protocol.Colors {
		b.WriteString(m.styles.Swatch[name].Render(name[:1]))
		b.WriteString(" ")
		b.WriteString(m.styles.Muted.Render(name))
		b.WriteString("   ")
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("s send • w save • x clear • 1-3 pad • X cancel game"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderRound(seq protocol.ColorSequence) string {
	blocks := make([]string, 0, seq.Len())
	for _, name := range seq.Names() {
		style, ok := m.styles.Swatch[name]
		if !ok {
			blocks = append(blocks, m.styles.Muted.Render("?"))
			continue
		}
		blocks = append(blocks, style.Render(strings.ToUpper(name[:1])))
	}
	return strings.Join(blocks, " ")
}

func (m Model) viewGames() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Games"))
	b.WriteString("\n")

	switch {
	case m.gamesLoading:
		b.WriteString(m.spinner.View() + " Loading catalog...")
	case len(m.games) == 0:
		b.WriteString(m.styles.Muted.Render("No games available."))
	default:
		for i, g := range m.games {
			line := fmt.Sprintf("%-24s  %s", truncate(g.Name, 24), m.styles.Muted.Render(truncate(g.Description, 40)))
			if i == m.cursor {
				b.WriteString(m.styles.MenuItemSelected.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewGameDetail() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Game"))
	b.WriteString("\n")

	if m.gameLoading || m.game == nil {
		b.WriteString(m.spinner.View() + " Loading...")
		return b.String()
	}

	g := m.game
	b.WriteString(m.renderField("Name", g.Name))
	b.WriteString(m.renderField("UID", g.UID))
	if g.Version != "" {
		b.WriteString(m.renderField("Version", g.Version))
	}
	if g.Description != "" {
		b.WriteString(m.styles.Content.Render(g.Description))
		b.WriteString("\n")
	}

	if len(g.Preferences) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Highlight.Render("Preferences"))
		b.WriteString("\n")
		for _, p := range g.Preferences {
			b.WriteString(m.renderField(p.Name, preferenceDefault(p)))
		}
	}

	b.WriteString("\n")
	if m.progress.IsActive() {
		b.WriteString(m.progress.View())
	} else if m.state == ble.StateReady {
		b.WriteString(m.styles.Muted.Render("enter start game"))
	} else {
		b.WriteString(m.styles.Muted.Render("Connect to the mats to start this game"))
	}
	b.WriteString("\n")
	return b.String()
}

func preferenceDefault(p api.Preference) string {
	v, err := p.Default()
	if err != nil {
		return "?"
	}
	return v
}

func (m Model) viewPresets() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Presets"))
	b.WriteString("\n")

	if len(m.presets) == 0 {
		b.WriteString(m.styles.Muted.Render("No presets saved. Press w in the colour view to save one."))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range m.presets {
		name := e.Name
		if name == "" {
			name = store.ShortHash(e.Hash)
		}
		line := fmt.Sprintf("%-16s  %s", truncate(name, 16), m.renderRound(protocol.NewColorSequence(e.Colors...)))
		if i == m.cursor {
			b.WriteString(m.styles.MenuItemSelected.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter edit • s send"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func roundLabel(seq protocol.ColorSequence) string {
	return strings.Join(seq.Names(), ",")
}
