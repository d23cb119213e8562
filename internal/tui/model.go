// Package tui is the interactive chat interface over the three answer
// backends.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/kailas-cloud/knowme/internal/chat"
)

// Backend pairs a selectable knowledge source with its answerer.
type Backend struct {
	Name     string
	Answerer chat.Answerer
}

type line struct {
	speaker string
	text    string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	backends   []Backend
	backendIdx int
	sessionID  string
	transcript []line
	input      textinput.Model
	viewport   viewport.Model
	status     string
	waiting    bool
	ready      bool
}

// answerMsg carries an async answer back into the update loop.
type answerMsg struct {
	answer string
	err    error
}

// New creates the chat model. Backends are cycled with Tab; the first one
// is selected at start.
func New(backends []Backend) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		backends:  backends,
		sessionID: uuid.NewString(),
		input:     ti,
		viewport:  vp,
		status:    "Tab switches the knowledge source. Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + source line, status, input box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.transcript = append(m.transcript, line{speaker: m.backend().Name, text: msg.answer})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if !m.waiting {
				m.backendIdx = (m.backendIdx + 1) % len(m.backends)
				// A new source starts a fresh conversation.
				m.sessionID = uuid.NewString()
				m.transcript = nil
				m.status = fmt.Sprintf("Switched to %s. New session.", m.backend().Name)
				m.viewport.SetContent(m.renderTranscript())
				return m, nil
			}
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.transcript = append(m.transcript, line{speaker: "you", text: q})
				m.input.SetValue("")
				m.waiting = true
				m.status = "Thinking..."
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, m.ask(q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
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
	header := lipgloss.NewStyle().Bold(true).Render("knowme")
	sources := m.renderSources()
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + sources + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) backend() Backend { return m.backends[m.backendIdx] }

// ask runs the question against the selected backend off the update loop.
func (m Model) ask(query string) tea.Cmd {
	backend := m.backend()
	sessionID := m.sessionID
	return func() tea.Msg {
		answer, err := backend.Answerer.Answer(context.Background(), sessionID, query)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) renderSources() string {
	parts := make([]string, len(m.backends))
	for i, b := range m.backends {
		if i == m.backendIdx {
			parts[i] = selectedSourceStyle.Render("[" + b.Name + "]")
		} else {
			parts[i] = sourceStyle.Render(b.Name)
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Ask something about the candidate."
	}
	var sb strings.Builder
	for i, l := range m.transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if l.speaker == "you" {
			sb.WriteString(userStyle.Render("you: "))
		} else {
			sb.WriteString(botStyle.Render(l.speaker + ": "))
		}
		sb.WriteString(l.text)
	}
	return sb.String()
}

var (
	transcriptBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sourceStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
