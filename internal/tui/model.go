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
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/nutribuddy/internal/chat"
	"github.com/diogo/nutribuddy/internal/models"
	"github.com/diogo/nutribuddy/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// turnDoneMsg is sent when SubmitTurn returns
type turnDoneMsg struct {
	err error
}

// Options configures the chat model
type Options struct {
	// ServerURL is shown in the header.
	ServerURL string
	// Timeout bounds each reply; zero means no bound beyond cancellation.
	Timeout time.Duration
	Logger  *zap.Logger
	Render  render.Options
}

// Model is the chat TUI state
type Model struct {
	controller *chat.Controller
	board      *board
	ctx        context.Context
	serverURL  string
	renderOpts render.Options

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	loading        bool
	ready          bool
	animationFrame int

	width  int
	height int
}

// NewModel creates a chat model that sends turns through client
func NewModel(client chat.Replier, opts Options) Model {
	b := newBoard()

	ta := textarea.New()
	ta.Placeholder = "Tell me what you ate..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "shift+enter", "ctrl+j"))
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorTextDim).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorTextMute)
	h.ShortSeparator = "  │  "

	renderOpts := opts.Render
	if renderOpts.Style == "" {
		renderOpts = render.DefaultOptions()
	}

	return Model{
		controller: chat.NewController(b, client,
			chat.WithLogger(opts.Logger),
			chat.WithTimeout(opts.Timeout),
		),
		board:      b,
		ctx:        context.Background(),
		serverURL:  opts.ServerURL,
		renderOpts: renderOpts,
		textarea:   ta,
		spinner:    s,
		help:       h,
		keys:       defaultKeyMap(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.board.cancel()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Cancel):
			if m.loading {
				m.board.cancel()
				return m, nil
			}
			return m, tea.Quit

		case chat.IsSubmitKey(msg.String()):
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if exitWords[strings.ToLower(input)] {
				return m, tea.Quit
			}

			m.board.setInput(m.textarea.Value())
			m.loading = true
			m.animationFrame = 0
			m.textarea.Blur()

			return m, tea.Batch(
				m.handleKey(msg.String()),
				m.spinner.Tick,
				animationTick(),
			)
		}

	case clearInputMsg:
		m.textarea.Reset()

	case boardChangedMsg:
		m.updateViewport()

	case scrollEndMsg:
		m.viewport.GotoBottom()

	case busyMsg:
		m.setLoading(msg.busy)

	case turnDoneMsg:
		m.board.cancel()
		m.setLoading(false)
		if msg.err == nil {
			m.textarea.Reset()
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.updateViewport()
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only key presses reach the textarea so stray escape sequences never leak in
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey hands a submit key to the controller off the event loop
func (m Model) handleKey(k string) tea.Cmd {
	ctx := m.board.startTurn(m.ctx)
	controller := m.controller
	return func() tea.Msg {
		return turnDoneMsg{err: controller.HandleKey(ctx, k)}
	}
}

func (m *Model) setLoading(loading bool) {
	m.loading = loading
	if loading {
		m.textarea.Blur()
	} else {
		m.textarea.Focus()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 2
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.viewport.KeyMap = viewport.KeyMap{
			PageUp:   key.NewBinding(key.WithKeys("pgup")),
			PageDown: key.NewBinding(key.WithKeys("pgdown")),
		}
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.help.Width = contentWidth
	m.updateViewport()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	// Header
	headerParts := []string{titleStyle.Render("🥗 Nutrition Buddy")}
	if m.serverURL != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.serverURL),
		)
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	// Messages
	messagesContent := m.viewport.View()
	if len(m.board.Messages()) == 0 {
		messagesContent = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render(models.SenderUser.Label()),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Status bar
	sections = append(sections, statusBarStyle.Width(contentWidth).Align(lipgloss.Center).
		Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("🍎 🥦 🍚"),
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to Nutrition Buddy"),
		"",
		welcomeStyle.Width(width).Render("Tell me what you ate, like \"2 chapatis and 1 dal\""),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation draws the animated bar shown while a reply is pending
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	var bar strings.Builder
	for i := 0; i < 20; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + models.PlaceholderText + " ")
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

// updateViewport redraws every message on the board
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.board.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		switch {
		case msg.Pending:
			content.WriteString(assistantLabelStyle.Render("✦ " + models.SenderBot.Label()))
			content.WriteString("\n")
			content.WriteString(pendingStyle.Render(m.spinner.View() + " " + msg.Text))

		case msg.Sender == models.SenderUser:
			content.WriteString(userLabelStyle.Render("⬤ " + msg.Sender.Label()))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text))

		default:
			content.WriteString(assistantLabelStyle.Render("✦ " + msg.Sender.Label()))
			content.WriteString("\n")
			rendered := render.Reply(msg.Text, m.renderOpts.WithWidth(bubbleWidth-4))
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// Run starts the chat TUI and blocks until the user quits
func Run(ctx context.Context, client chat.Replier, opts Options) error {
	m := NewModel(client, opts)
	m.ctx = ctx

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	m.board.attach(p.Send)
	defer m.board.attach(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
