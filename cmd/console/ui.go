package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/story-proxy/internal/settings"
	"github.com/jwebster45206/story-proxy/pkg/engine"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

const (
	PlaceHolderText = "What do you do?"

	toastDuration  = 4 * time.Second
	typewriterStep = 3
)

type screen int

const (
	screenTitle screen = iota
	screenGame
	screenEndings
)

type menuPage int

const (
	menuMain menuPage = iota
	menuSettings
)

var (
	titleItems = []string{"New Game", "Continue", "Endings", "Quit"}
	menuItems  = []string{"Resume", "Save", "Load", "Endings", "Settings", "Title"}
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine       *engine.Engine
	settings     settings.Settings
	settingsPath string
	timeout      time.Duration
	logger       *slog.Logger
	assets       fs.FS

	screen   screen
	selected int
	hasSave  bool

	gs     *state.GameState
	result *state.TurnResult

	narrationViewport viewport.Model
	sideViewport      viewport.Model
	textarea          textarea.Model
	ready             bool
	width             int
	height            int
	loading           bool
	progressTick      int
	revealed          int

	toast    string
	toastSeq int

	showMenu     bool
	menuPage     menuPage
	menuSelected int

	endings         []endingEntry
	galleryReturn   screen
	galleryFromSave bool

	showQuitModal bool
}

type turnMsg struct {
	result *state.TurnResult
	err    error
}

type loadMsg struct {
	found bool
	err   error
}

type saveMsg struct {
	err error
}

type saveStatusMsg struct {
	hasSave bool
	saved   *state.GameState
}

type toastExpiredMsg struct {
	seq int
}

type progressTickMsg struct{}

type typewriterTickMsg struct{}

var (
	mainPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	sidePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("52")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalDisabledItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(eng *engine.Engine, prefs settings.Settings, settingsPath string, timeout time.Duration, logger *slog.Logger) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = state.QuestionMaxChars
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	narrationVp := viewport.New(50, 20)
	narrationVp.MouseWheelEnabled = true

	sideVp := viewport.New(20, 20)

	return ConsoleUI{
		engine:            eng,
		settings:          prefs,
		settingsPath:      settingsPath,
		timeout:           timeout,
		logger:            logger,
		assets:            os.DirFS("."),
		screen:            screenTitle,
		gs:                eng.State(),
		result:            eng.LastResult(),
		textarea:          ta,
		narrationViewport: narrationVp,
		sideViewport:      sideVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.checkSave()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case turnMsg:
		return m.handleTurn(msg)

	case loadMsg:
		return m.handleLoad(msg)

	case saveMsg:
		if msg.err != nil {
			m.logger.Warn("Save failed", "error", msg.err)
			cmd := m.showToast("Save failed: " + msg.err.Error())
			return m, cmd
		}
		m.hasSave = true
		cmd := m.showToast("Game saved")
		return m, cmd

	case saveStatusMsg:
		m.hasSave = msg.hasSave
		if m.screen == screenEndings && m.galleryFromSave {
			m.endings = collectEndings(msg.saved)
		}
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.refreshNarration()
			return m, progressTick()
		}
		return m, nil

	case typewriterTickMsg:
		if m.revealing() {
			m.revealed += typewriterStep
			m.refreshNarration()
			return m, typewriterTick()
		}
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showMenu {
		return m.updateMenu(msg)
	}

	switch m.screen {
	case screenTitle:
		return m.updateTitle(msg)
	case screenEndings:
		return m.updateEndings(msg)
	default:
		return m.updateGame(msg)
	}
}

func (m ConsoleUI) updateTitle(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(titleItems)-1 {
			m.selected++
		}
	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		switch titleItems[m.selected] {
		case "New Game":
			m.loading = true
			m.progressTick = 0
			return m, tea.Batch(m.startNewGame(), progressTick())
		case "Continue":
			if !m.hasSave {
				cmd := m.showToast("No saved game")
				return m, cmd
			}
			m.loading = true
			return m, m.continueGame()
		case "Endings":
			return m.openGallery(screenTitle, nil)
		case "Quit":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConsoleUI) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.narrationViewport, vpCmd = m.narrationViewport.Update(msg)
		return m, vpCmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			if m.loading {
				return m, nil
			}
			m.showMenu = true
			m.menuPage = menuMain
			m.menuSelected = 0
			m.textarea.Blur()
			return m, nil
		case tea.KeyCtrlY:
			cmd := m.copyNarration()
			return m, cmd
		case tea.KeyPgUp, tea.KeyPgDown:
			m.narrationViewport, vpCmd = m.narrationViewport.Update(msg)
			return m, vpCmd
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.revealing() {
				m.revealed = narrationLength(m.result)
				m.refreshNarration()
				return m, nil
			}
			if m.result != nil && m.result.End != nil {
				return m.openGallery(screenTitle, m.gs)
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			m.textarea.Blur()
			m.loading = true
			m.progressTick = 0
			m.refreshNarration()
			return m, tea.Batch(m.executeTurn(input), progressTick())
		}

		// Input is disabled while a turn is in flight.
		if m.loading {
			return m, nil
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	return m, tiCmd
}

func (m ConsoleUI) updateEndings(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC:
		m.showQuitModal = true
	case tea.KeyEsc, tea.KeyEnter:
		m.screen = m.galleryReturn
		if m.screen == screenGame {
			m.textarea.Focus()
			return m, textarea.Blink
		}
		return m, m.checkSave()
	}
	return m, nil
}

func (m ConsoleUI) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	items := m.menuEntries()
	switch key.Type {
	case tea.KeyCtrlC:
		m.showQuitModal = true
		return m, nil
	case tea.KeyEsc:
		if m.menuPage == menuSettings {
			m.menuPage = menuMain
			m.menuSelected = 0
			return m, nil
		}
		return m.closeMenu()
	case tea.KeyUp:
		if m.menuSelected > 0 {
			m.menuSelected--
		}
	case tea.KeyDown:
		if m.menuSelected < len(items)-1 {
			m.menuSelected++
		}
	case tea.KeyEnter:
		if m.menuPage == menuSettings {
			return m.applySetting()
		}
		switch menuItems[m.menuSelected] {
		case "Resume":
			return m.closeMenu()
		case "Save":
			m.showMenu = false
			return m, m.saveGame()
		case "Load":
			m.showMenu = false
			m.loading = true
			return m, m.continueGame()
		case "Endings":
			m.showMenu = false
			return m.openGallery(screenGame, m.gs)
		case "Settings":
			m.menuPage = menuSettings
			m.menuSelected = 0
		case "Title":
			m.showMenu = false
			m.screen = screenTitle
			m.selected = 0
			return m, m.checkSave()
		}
	}
	return m, nil
}

func (m ConsoleUI) closeMenu() (tea.Model, tea.Cmd) {
	m.showMenu = false
	m.textarea.Focus()
	return m, textarea.Blink
}

// applySetting changes the highlighted setting and writes the file.
func (m ConsoleUI) applySetting() (tea.Model, tea.Cmd) {
	switch m.menuSelected {
	case 0:
		m.settings.TextSize = m.settings.NextTextSize()
		m.refreshNarration()
	case 1:
		m.settings.Typewriter = !m.settings.Typewriter
	case 2:
		m.settings.BGM = !m.settings.BGM
	default:
		m.menuPage = menuMain
		m.menuSelected = 0
		return m, nil
	}

	if err := settings.Save(m.settingsPath, m.settings); err != nil {
		m.logger.Warn("Failed to save settings", "path", m.settingsPath, "error", err)
		cmd := m.showToast("Settings not saved: " + err.Error())
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) menuEntries() []string {
	if m.menuPage == menuSettings {
		return settingsEntries(m.settings)
	}
	return menuItems
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
		if m.screen == screenGame && !m.showMenu && !m.loading {
			m.textarea.Focus()
			return m, textarea.Blink
		}
	}
	return m, nil
}

func (m ConsoleUI) handleTurn(msg turnMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.logger.Warn("Turn failed", "error", msg.err)
		m.refreshNarration()
		if m.screen == screenGame {
			m.textarea.Focus()
		}
		cmd := m.showToast(describeError(msg.err))
		return m, cmd
	}

	m.gs = m.engine.State()
	m.result = msg.result
	m.screen = screenGame
	m.hasSave = true
	m.prepareInput()

	m.revealed = narrationLength(m.result)
	var cmds []tea.Cmd
	if m.settings.Typewriter {
		m.revealed = 0
		cmds = append(cmds, typewriterTick())
	}
	m.refreshNarration()
	m.refreshSide()
	m.narrationViewport.GotoTop()

	if m.result.End != nil {
		m.textarea.Blur()
		return m, tea.Batch(cmds...)
	}
	m.textarea.Focus()
	cmds = append(cmds, textarea.Blink)
	return m, tea.Batch(cmds...)
}

func (m ConsoleUI) handleLoad(msg loadMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	switch {
	case msg.err != nil:
		m.logger.Warn("Load failed", "error", msg.err)
		cmd := m.showToast("Load failed: " + describeError(msg.err))
		return m, cmd
	case !msg.found:
		m.hasSave = false
		cmd := m.showToast("No saved game")
		return m, cmd
	}

	m.gs = m.engine.State()
	m.result = m.engine.LastResult()
	if m.result == nil {
		// A save from before the opening turn has nothing to show yet.
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.startNewGame(), progressTick())
	}

	m.screen = screenGame
	m.prepareInput()
	m.revealed = narrationLength(m.result)
	m.refreshNarration()
	m.refreshSide()
	m.narrationViewport.GotoTop()
	m.textarea.Focus()
	cmd := m.showToast("Game loaded")
	return m, tea.Batch(cmd, textarea.Blink)
}

// openGallery shows the endings of gs, or of the save slot when gs is nil.
func (m ConsoleUI) openGallery(from screen, gs *state.GameState) (tea.Model, tea.Cmd) {
	m.galleryReturn = from
	m.screen = screenEndings
	m.textarea.Blur()
	m.galleryFromSave = gs == nil
	if gs != nil {
		m.endings = collectEndings(gs)
		return m, nil
	}
	m.endings = nil
	return m, m.checkSave()
}

// prepareInput resets the answer box for the current question.
func (m *ConsoleUI) prepareInput() {
	m.textarea.Reset()
	m.textarea.Placeholder = PlaceHolderText
	m.textarea.CharLimit = state.QuestionMaxChars
	if q := m.result.Question; q != nil {
		if hint := strings.TrimSpace(q.InputHint); hint != "" {
			m.textarea.Placeholder = hint
		}
		if n := q.MaxChars.Int(); n > 0 && n < state.QuestionMaxChars {
			m.textarea.CharLimit = n
		}
	}
}

func (m *ConsoleUI) resize() {
	mainWidth, sideWidth := m.panelWidths()
	m.narrationViewport.Width = mainWidth - 2
	m.narrationViewport.Height = max(m.height-gameChromeHeight, 3)
	m.sideViewport.Width = sideWidth - 2
	m.sideViewport.Height = max(m.height-3, 3)
	m.textarea.SetWidth(mainWidth - 4)
	m.refreshNarration()
	m.refreshSide()
}

func (m ConsoleUI) panelWidths() (int, int) {
	mainWidth := int(float64(m.width)*0.75) - 4
	sideWidth := m.width - mainWidth - 6
	return mainWidth, sideWidth
}

func (m *ConsoleUI) refreshNarration() {
	width := m.settings.WrapWidth(m.narrationViewport.Width)
	content := renderNarration(m.result, width, m.revealed)
	if m.loading {
		content += "\n\n" + loadingStyle.Render("The story continues...") + "\n" + m.renderProgressBar()
	}
	m.narrationViewport.SetContent(content)
	if m.loading {
		m.narrationViewport.GotoBottom()
	}
}

func (m *ConsoleUI) refreshSide() {
	m.sideViewport.SetContent(renderSidePanel(m.result, m.gs, m.assets))
}

func (m ConsoleUI) revealing() bool {
	return m.result != nil && m.revealed < narrationLength(m.result)
}

func (m *ConsoleUI) showToast(text string) tea.Cmd {
	m.toastSeq++
	m.toast = text
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m *ConsoleUI) copyNarration() tea.Cmd {
	if m.result == nil || m.result.Narration == "" {
		return nil
	}
	if err := clipboard.WriteAll(m.result.Narration); err != nil {
		m.logger.Warn("Clipboard write failed", "error", err)
		return m.showToast("Copy failed: " + err.Error())
	}
	return m.showToast("Narration copied")
}

func (m ConsoleUI) turnContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m ConsoleUI) executeTurn(input string) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		ctx, cancel := m.turnContext()
		defer cancel()
		result, err := eng.ExecuteTurn(ctx, input)
		return turnMsg{result: result, err: err}
	}
}

func (m ConsoleUI) startNewGame() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		ctx, cancel := m.turnContext()
		defer cancel()
		result, err := eng.StartNewGame(ctx)
		return turnMsg{result: result, err: err}
	}
}

func (m ConsoleUI) continueGame() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		ctx, cancel := m.turnContext()
		defer cancel()
		found, err := eng.Continue(ctx)
		return loadMsg{found: found, err: err}
	}
}

func (m ConsoleUI) saveGame() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		ctx, cancel := m.turnContext()
		defer cancel()
		return saveMsg{err: eng.Save(ctx)}
	}
}

// checkSave refreshes the title screen's view of the save slot.
func (m ConsoleUI) checkSave() tea.Cmd {
	eng := m.engine
	log := m.logger
	return func() tea.Msg {
		ctx, cancel := m.turnContext()
		defer cancel()
		saved, err := eng.Peek(ctx)
		if err != nil {
			log.Warn("Could not read save", "error", err)
			return saveStatusMsg{}
		}
		return saveStatusMsg{hasSave: saved != nil, saved: saved}
	}
}

// describeError turns a turn failure into a short player-facing message.
func describeError(err error) string {
	var unusable *state.UnusableReplyError
	var malformed *state.MalformedReplyError
	var proxyErr *engine.ProxyError

	switch {
	case errors.Is(err, engine.ErrTurnInFlight):
		return "A turn is already in progress"
	case errors.As(err, &unusable):
		return "The story could not be read. Try again."
	case errors.As(err, &malformed):
		return "The story came back incomplete. Try again."
	case errors.As(err, &proxyErr):
		return proxyErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The storyteller took too long to answer"
	default:
		return err.Error()
	}
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func typewriterTick() tea.Cmd {
	return tea.Tick(time.Millisecond*20, func(time.Time) tea.Msg {
		return typewriterTickMsg{}
	})
}
