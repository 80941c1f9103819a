package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kbbot/internal/domain"
	"kbbot/internal/service"
)

// AnswererPort is the TUI-facing subset of the answer service.
type AnswererPort interface {
	Answer(ctx context.Context, question string) (service.Answer, error)
}

type answerMsg struct {
	question string
	answer   service.Answer
	err      error
}

// Model is the Bubble Tea model for the chat consumer.
type Model struct {
	service  AnswererPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []string
	status   string
	waiting  bool
	ready    bool
}

// New creates a new chat model instance.
func New(svc AnswererPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		service:  svc,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		status:   "Knowledge base loaded. Ask away.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.waiting = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, tea.Batch(m.spinner.Tick, askCmd(m.service, q))
			}
		}
	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Answered."
			m.history = append(m.history, renderExchange(msg.question, msg.answer))
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Knowledge Base Bot")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = statusStyle.Render(m.spinner.View() + " " + m.status)
	}
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	return strings.Join(m.history, "\n\n")
}

func askCmd(svc AnswererPort, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := svc.Answer(context.Background(), question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// renderExchange formats one question/answer pair with the match annotation
// and its source list, mirroring the three reply shapes of the chat bot.
func renderExchange(question string, a service.Answer) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("You: "+question) + "\n")
	b.WriteString(a.Text)
	switch a.State {
	case domain.MatchNone:
		b.WriteString("\n\n" + warnStyle.Render("No internal documentation matched your question."))
	case domain.MatchWeak:
		b.WriteString("\n\n" + warnStyle.Render("Documentation was a weak match. Answer may rely on general knowledge."))
		b.WriteString("\n" + sourceHeaderStyle.Render("Related (but weak) docs:"))
		b.WriteString("\n" + renderSources(a.Sources))
	case domain.MatchStrong:
		b.WriteString("\n\n" + sourceHeaderStyle.Render("Related docs:"))
		b.WriteString("\n" + renderSources(a.Sources))
	}
	return b.String()
}

func renderSources(refs []service.SourceRef) string {
	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.URL != "" {
			lines = append(lines, fmt.Sprintf("  • %s → %s", ref.Name, ref.URL))
		} else {
			lines = append(lines, fmt.Sprintf("  • %s", ref.Name))
		}
	}
	return strings.Join(lines, "\n")
}

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	chatBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sourceHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
