package main

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/story-proxy/internal/settings"
	"github.com/jwebster45206/story-proxy/pkg/art"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

// Rows taken by the HUD, status line, question, separator, input and padding.
const gameChromeHeight = 12

type endingEntry struct {
	ID     string
	Title  string
	Detail string
	AtTurn int
}

// collectEndings lists unlocked endings in the order they were reached.
func collectEndings(gs *state.GameState) []endingEntry {
	if gs == nil {
		return nil
	}
	entries := make([]endingEntry, 0, len(gs.Endings))
	for id, e := range gs.Endings {
		if !e.Unlocked {
			continue
		}
		entries = append(entries, endingEntry{ID: id, Title: e.Title, Detail: e.Summary, AtTurn: e.AtTurn})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AtTurn != entries[j].AtTurn {
			return entries[i].AtTurn < entries[j].AtTurn
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func narrationLength(r *state.TurnResult) int {
	if r == nil {
		return 0
	}
	return len([]rune(r.Narration))
}

// renderNarration wraps the first revealed runes of the narration.
func renderNarration(r *state.TurnResult, width, revealed int) string {
	if r == nil {
		return ""
	}
	text := r.Narration
	if runes := []rune(text); revealed < len(runes) {
		text = string(runes[:max(revealed, 0)])
	}

	var content strings.Builder
	content.WriteString(narratorStyle.Render(wordwrap.String(text, width)))

	if r.End != nil && revealed >= narrationLength(r) {
		content.WriteString("\n\n")
		content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width, 1))) + "\n\n")
		content.WriteString(titleStyle.Render("THE END · "+r.End.Title) + "\n\n")
		if r.End.Summary != "" {
			content.WriteString(wordwrap.String(r.End.Summary, width) + "\n\n")
		}
		content.WriteString(promptStyle.Render("Press Enter to see your endings"))
	}
	return content.String()
}

func renderHUD(gs *state.GameState) string {
	if gs == nil {
		return ""
	}
	return fmt.Sprintf("SAN %d  STA %d  LUK %d   %s",
		gs.Stats.Sanity, gs.Stats.Stamina, gs.Stats.Luck,
		promptStyle.Render(fmt.Sprintf("Turn %d · %s", gs.Turn, gs.Chapter)))
}

func renderStatus(r *state.TurnResult) string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{r.Status.Place, r.Status.Time} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}

// renderSidePanel shows the active character, the rest of the cast and
// the number of endings found.
func renderSidePanel(r *state.TurnResult, gs *state.GameState, assets fs.FS) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CAST") + "\n\n")

	if r == nil {
		content.WriteString(promptStyle.Render("Nobody yet.") + "\n")
	} else {
		if a := r.Cast.Active; a != nil && a.ID != "" {
			content.WriteString(speakerStyle.Render(displayName(*a)) + "\n")
			if a.Expression != "" {
				content.WriteString(a.Expression + "\n")
			}
			content.WriteString(promptStyle.Render(art.Resolve(assets, a.ID, a.Expression)) + "\n\n")
		}
		if len(r.Cast.Others) > 0 {
			content.WriteString("Also here:\n")
			for _, c := range r.Cast.Others {
				content.WriteString("• " + displayName(c) + "\n")
			}
			content.WriteString("\n")
		}
	}

	if gs != nil {
		content.WriteString(fmt.Sprintf("Endings found: %d\n\n", len(collectEndings(gs))))
	}

	content.WriteString("Keys:\n")
	content.WriteString("• Enter: Answer\n")
	content.WriteString("• Esc: Menu\n")
	content.WriteString("• Ctrl+Y: Copy story\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func displayName(c state.Character) string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return c.ID
}

func settingsEntries(s settings.Settings) []string {
	return []string{
		"Text size: " + s.TextSize,
		"Typewriter: " + onOff(s.Typewriter),
		"BGM: " + onOff(s.BGM),
		"Back",
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showMenu {
		return m.renderMenu()
	}

	var view string
	switch m.screen {
	case screenTitle:
		view = m.renderTitle()
	case screenEndings:
		view = m.renderEndings()
	default:
		view = m.renderGame()
	}

	if m.toast != "" {
		return lipgloss.JoinVertical(lipgloss.Left, view, toastStyle.Render(m.toast))
	}
	return view
}

func (m ConsoleUI) renderGame() string {
	mainWidth, sideWidth := m.panelWidths()

	var question string
	if r := m.result; r != nil && r.Question != nil && r.End == nil {
		question = userStyle.Render(wordwrap.String(r.Question.Text, max(mainWidth-4, 1)))
	}

	input := m.textarea.View()
	if m.loading {
		input = loadingStyle.Render("Waiting for the story...")
	} else if m.result != nil && m.result.End != nil {
		input = promptStyle.Render("The story has ended.")
	}

	mainPanel := mainPanelStyle.Width(mainWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			renderHUD(m.gs),
			promptStyle.Render(renderStatus(m.result)),
			"",
			m.narrationViewport.View(),
			"",
			question,
			separatorStyle.Render(strings.Repeat("─", max(mainWidth-4, 1))),
			input,
		),
	)

	sidePanel := sidePanelStyle.Width(sideWidth).Height(m.height - 2).Render(
		m.sideViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, sidePanel)
}

func (m ConsoleUI) renderTitle() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("VER POTTER"))
	content.WriteString("\n\n")

	if m.loading {
		content.WriteString(loadingStyle.Render("Opening the story..."))
		content.WriteString("\n\n")
		content.WriteString(m.renderProgressBar())
	} else {
		for i, item := range titleItems {
			line := "  " + item
			style := modalItemStyle
			if item == "Continue" && !m.hasSave {
				style = modalDisabledItemStyle
			}
			if i == m.selected {
				line = "▶ " + item
				style = modalSelectedItemStyle
			}
			content.WriteString(style.Render(line) + "\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select"))
	}

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderEndings() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Endings"))
	content.WriteString("\n\n")

	if len(m.endings) == 0 {
		content.WriteString(promptStyle.Render("No endings found yet."))
		content.WriteString("\n")
	}
	for _, e := range m.endings {
		content.WriteString(speakerStyle.Render(e.Title))
		content.WriteString(promptStyle.Render(fmt.Sprintf("  (turn %d)", e.AtTurn)))
		content.WriteString("\n")
		if e.Detail != "" {
			content.WriteString(wordwrap.String(e.Detail, 56) + "\n")
		}
		content.WriteString("\n")
	}
	content.WriteString(promptStyle.Render("Press Enter or Esc to go back"))

	modal := modalStyle.Width(64).Render(content.String())
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderMenu() string {
	title := "Menu"
	if m.menuPage == menuSettings {
		title = "Settings"
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	for i, item := range m.menuEntries() {
		if i == m.menuSelected {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + item))
		} else {
			content.WriteString(modalItemStyle.Render("  " + item))
		}
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Enter to select, Esc to go back"))

	modal := modalStyle.Width(40).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Progress is saved after every turn.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.narrationViewport.Width - 6
	if m.screen == screenTitle {
		usable = 40
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}
