package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/fileconv/internal"
)

const chatMaxWidth = 100

type (
	chatReplyMsg struct {
		reply internal.ChatReply
		err   error
	}
	convertDoneMsg struct {
		result *internal.ConversionResult
		err    error
	}
	modelsMsg struct {
		models []string
		err    error
	}
	shareDoneMsg struct {
		note internal.Notification
	}
)

// chatModel is the bubbletea model for the interactive chat
type chatModel struct {
	bridge    *internal.ChatBridge
	client    *internal.Client
	presenter *internal.Presenter
	theme     internal.Theme

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width, height  int
	loading        bool
	status         string
	notice         string
	noticeErr      bool
	lastResult     *internal.ConversionResult
	pending        string
	transcriptPath string
}

func newChatModel(bridge *internal.ChatBridge, client *internal.Client, presenter *internal.Presenter, theme internal.Theme) *chatModel {
	ti := textinput.New()
	ti.Placeholder = internal.Placeholder(bridge.Language())
	ti.Prompt = "❯ "
	ti.CharLimit = 0
	ti.PromptStyle = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(theme.Muted)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	return &chatModel{
		bridge:    bridge,
		client:    client,
		presenter: presenter,
		theme:     theme,
		viewport:  viewport.New(60, 15),
		input:     ti,
		spinner:   sp,
	}
}

func (m *chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.pending != "" {
		text := m.pending
		m.pending = ""
		cmds = append(cmds, m.send(text))
	}
	return tea.Batch(cmds...)
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.refresh()
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		chatWidth := msg.Width - 2
		if chatWidth > chatMaxWidth {
			chatWidth = chatMaxWidth
		}
		m.viewport.Width = chatWidth
		m.viewport.Height = msg.Height - 6
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.input.Width = chatWidth - 4

		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-4),
		)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			if strings.HasPrefix(text, "/") {
				return m, m.command(text)
			}
			return m, m.send(text)
		}

	case chatReplyMsg:
		if errors.Is(msg.err, internal.ErrStaleResponse) {
			// Superseded by a language switch; a newer request may be pending.
			return m, nil
		}
		m.loading = false
		m.status = ""
		switch {
		case errors.Is(msg.err, internal.ErrAlreadyInProgress):
			m.setNotice("Please wait for the current reply", true)
		case msg.err != nil && msg.reply.Message.Content == "":
			m.setNotice(internal.UserMessage(msg.err, msg.err.Error()), true)
		case msg.reply.Intent != nil:
			m.setNotice(fmt.Sprintf("Ready to convert to %s (%s). Attach a file with /upload PATH or /cancel.",
				strings.ToUpper(msg.reply.Intent.TargetFormat), msg.reply.Intent.ConversionType), false)
		}
		m.refresh()
		return m, nil

	case convertDoneMsg:
		m.loading = false
		m.status = ""
		if session := m.bridge.Session(); session != nil {
			view := m.presenter.Render(session.Snapshot())
			if view.Kind == internal.ViewSuccess {
				m.lastResult = msg.result
				m.setNotice("Converted: "+view.AbsoluteURL+"  (/copy, /share EMAIL)", false)
			} else {
				m.setNotice(view.Message, true)
			}
		}
		m.refresh()
		return m, nil

	case modelsMsg:
		m.loading = false
		m.status = ""
		if msg.err != nil {
			m.setNotice(internal.UserMessage(msg.err, msg.err.Error()), true)
		} else {
			m.setNotice("Models: "+strings.Join(msg.models, ", "), false)
		}
		m.refresh()
		return m, nil

	case shareDoneMsg:
		m.loading = false
		m.status = ""
		m.setNotice(msg.note.Text, msg.note.Level == internal.NotifyError)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts a chat round trip. The user message shows up on the next
// refresh since the bridge records it before calling out.
func (m *chatModel) send(text string) tea.Cmd {
	if m.loading {
		m.setNotice("Please wait for the current reply", true)
		return nil
	}
	m.loading = true
	m.status = "Thinking..."
	m.notice = ""
	bridge := m.bridge
	return func() tea.Msg {
		reply, err := bridge.SendMessage(context.Background(), text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (m *chatModel) command(line string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "exit":
		return tea.Quit

	case "upload":
		if arg == "" {
			m.setNotice("Usage: /upload PATH", true)
			return nil
		}
		if m.loading {
			m.setNotice("Please wait for the current reply", true)
			return nil
		}
		file, err := internal.NewSelectedFile(arg)
		if err != nil {
			m.setNotice(internal.UserMessage(err, err.Error()), true)
			return nil
		}
		if err := m.bridge.AttachFile(file); err != nil {
			if errors.Is(err, internal.ErrNoIntent) {
				m.setNotice("Ask the assistant for a conversion first", true)
			} else {
				m.setNotice(internal.UserMessage(err, err.Error()), true)
			}
			return nil
		}
		m.loading = true
		m.status = "Converting " + file.Name + "..."
		bridge := m.bridge
		return func() tea.Msg {
			result, err := bridge.ConvertWithIntent(context.Background())
			return convertDoneMsg{result: result, err: err}
		}

	case "cancel":
		m.bridge.CancelUpload()
		m.setNotice("Conversion cancelled", false)

	case "lang":
		if err := m.bridge.SetLanguage(arg); err != nil {
			m.setNotice(internal.UserMessage(err, err.Error()), true)
			return nil
		}
		m.loading = false
		m.status = ""
		m.input.Placeholder = internal.Placeholder(m.bridge.Language())
		m.setNotice("Language: "+internal.LanguageName(m.bridge.Language()), false)

	case "model":
		if arg == "" {
			m.setNotice("Model: "+orDefault(m.bridge.Model(), "server default"), false)
			return nil
		}
		m.bridge.SetModel(arg)
		m.setNotice("Model: "+arg, false)

	case "models":
		m.loading = true
		m.status = "Loading models..."
		client := m.client
		return func() tea.Msg {
			models, err := client.ChatModels(context.Background())
			return modelsMsg{models: models, err: err}
		}

	case "starters":
		m.setNotice(strings.Join(internal.ConversationStarters(m.bridge.Language()), " • "), false)

	case "copy":
		link, err := m.presenter.CopyLink(m.lastResult)
		if err != nil {
			m.setNotice(internal.UserMessage(err, err.Error()), true)
			return nil
		}
		m.setNotice("Link copied: "+link, false)

	case "share":
		if m.lastResult == nil {
			m.setNotice("There is no converted file to share", true)
			return nil
		}
		email, message, _ := strings.Cut(arg, " ")
		m.loading = true
		m.status = "Sharing..."
		presenter, result := m.presenter, m.lastResult
		return func() tea.Msg {
			return shareDoneMsg{note: presenter.Share(context.Background(), result, email, strings.TrimSpace(message))}
		}

	case "save":
		path := orDefault(arg, m.transcriptPath)
		if path == "" {
			m.setNotice("Usage: /save PATH", true)
			return nil
		}
		if err := saveTranscript(m.bridge.Transcript(), path); err != nil {
			m.setNotice(err.Error(), true)
			return nil
		}
		m.setNotice("Saved "+path, false)

	default:
		m.setNotice("Unknown command /"+name, true)
	}
	m.refresh()
	return nil
}

func (m *chatModel) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// refresh re-renders the history into the viewport.
func (m *chatModel) refresh() {
	userLabel := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true).Render("YOU")
	aiLabel := lipgloss.NewStyle().Foreground(m.theme.Success).Bold(true).Render("ASSISTANT")

	var parts []string
	for _, msg := range m.bridge.History() {
		switch msg.Role {
		case internal.RoleUser:
			parts = append(parts, userLabel+"\n"+msg.Content)
		case internal.RoleAssistant:
			parts = append(parts, aiLabel+"\n"+m.renderMarkdown(msg.Content))
		}
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" "+m.status)
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

func (m *chatModel) View() string {
	title := lipgloss.NewStyle().Foreground(m.theme.Accent).Bold(true).Render("FILECONV ASSISTANT")
	header := fmt.Sprintf("%s  %s", title, lipgloss.NewStyle().Foreground(m.theme.Muted).Render(
		internal.LanguageName(m.bridge.Language())+" • "+orDefault(m.bridge.Model(), "default model")))

	noticeStyle := lipgloss.NewStyle().Foreground(m.theme.Muted)
	if m.noticeErr {
		noticeStyle = lipgloss.NewStyle().Foreground(m.theme.Error)
	}
	notice := m.notice
	if intent := m.bridge.ArmedIntent(); intent != nil && notice == "" {
		notice = fmt.Sprintf("Pending conversion to %s. /upload PATH or /cancel", strings.ToUpper(intent.TargetFormat))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		noticeStyle.Render(notice),
		m.input.View(),
	)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
