package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"warda/internal/domain"
	"warda/internal/present"
	"warda/internal/service"
)

// SearchPort is the TUI-facing subset of the search service.
type SearchPort interface {
	Query(ctx context.Context, opts service.QueryOptions, mode domain.Mode) (*service.Page, error)
}

type pageMsg struct{ page *service.Page }

type errMsg struct{ err error }

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  SearchPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	opts     service.QueryOptions
	models   []string
	page     *service.Page
	status   string
	cursor   int
	ready    bool
	loading  bool
	width    int
	height   int
}

// New creates a new TUI model instance. models is the list cycled with ctrl+t.
func New(svc SearchPort, opts service.QueryOptions, models []string) Model {
	opts = opts.Clamp()
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Votre question, puis Entrée"
	ti.SetValue(opts.Question)
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if len(models) == 0 {
		models = []string{opts.Model}
	}
	return Model{
		service:  svc,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		opts:     opts,
		models:   models,
		status:   "Prêt. Entrée pour rechercher.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and search events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case pageMsg:
		m.loading = false
		m.page = msg.page
		m.cursor = 0
		m.status = fmt.Sprintf("%d fragment(s) pour %q (%s)", len(msg.page.Cards), msg.page.Question, msg.page.Elapsed.Round(10*time.Millisecond))
		m.layout()
		return m, nil
	case errMsg:
		m.loading = false
		m.status = "Erreur: " + msg.err.Error()
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.start(domain.ModeNone)
		case "ctrl+p":
			if m.opts.UseLLM {
				return m.start(domain.ModePerResult)
			}
			return m, nil
		case "ctrl+f":
			if m.opts.UseLLM {
				return m.start(domain.ModeFinal)
			}
			return m, nil
		case "ctrl+o":
			m.opts.UseLLM = !m.opts.UseLLM
			return m, nil
		case "ctrl+t":
			if m.opts.UseLLM {
				m.opts.Model = nextModel(m.models, m.opts.Model)
			}
			return m, nil
		case "down":
			if m.page != nil && len(m.page.Cards) > 0 {
				m.cursor = (m.cursor + 1) % len(m.page.Cards)
				m.viewport.SetContent(m.renderCurrentCard())
				m.viewport.GotoTop()
				return m, nil
			}
		case "up":
			if m.page != nil && len(m.page.Cards) > 0 {
				m.cursor = (m.cursor - 1 + len(m.page.Cards)) % len(m.page.Cards)
				m.viewport.SetContent(m.renderCurrentCard())
				m.viewport.GotoTop()
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start launches one backend call. Keys are ignored while a call is running.
func (m Model) start(mode domain.Mode) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	m.opts.Question = q
	m.loading = true
	switch mode {
	case domain.ModePerResult:
		m.status = "Génération d'une phrase par résultat…"
	case domain.ModeFinal:
		m.status = "Génération de la réponse finale…"
	default:
		m.status = "Recherche…"
	}
	return m, tea.Batch(m.spinner.Tick, search(m.service, m.opts, mode))
}

func search(svc SearchPort, opts service.QueryOptions, mode domain.Mode) tea.Cmd {
	return func() tea.Msg {
		page, err := svc.Query(context.Background(), opts, mode)
		if err != nil {
			return errMsg{err}
		}
		return pageMsg{page}
	}
}

// View renders the TUI layout and current card.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	parts := []string{m.renderHeader()}
	if answer := m.renderFinalAnswer(); answer != "" {
		parts = append(parts, answer)
	}
	parts = append(parts,
		resultBoxStyle.Render(m.viewport.View()),
		queryBoxStyle.Render(m.input.View()),
		m.renderStatus(),
		helpStyle.Render(helpText),
	)
	return strings.Join(parts, "\n")
}

// layout sizes the viewport to whatever the other blocks leave free.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	rw, rh := resultBoxStyle.GetFrameSize()
	_, qh := queryBoxStyle.GetFrameSize()
	reserved := lipgloss.Height(m.renderHeader()) + 1 + qh + 1 + 1
	if answer := m.renderFinalAnswer(); answer != "" {
		reserved += lipgloss.Height(answer)
	}
	m.viewport.Width = max(20, m.width-rw)
	m.viewport.Height = max(3, m.height-reserved-rh)
	m.viewport.SetContent(m.renderCurrentCard())
}

func (m Model) renderHeader() string {
	llm := "off"
	if m.opts.UseLLM {
		llm = "on (" + m.opts.Model + ")"
	}
	settings := fmt.Sprintf("top_k=%d · llm=%s · timeout=%ds · max_chars_llm=%d · affichage=%d",
		m.opts.TopK, llm, m.opts.Timeout, m.opts.MaxCharsForLLM, m.opts.ShowChars)
	return titleStyle.Render("Recherche sémantique") + "\n" + mutedStyle.Render(settings)
}

func (m Model) renderFinalAnswer() string {
	if m.page == nil || m.page.FinalAnswer == "" {
		return ""
	}
	body := lipgloss.NewStyle().Width(max(20, m.width-4)).Render(m.page.FinalAnswer)
	return answerBoxStyle.Render(labelStyle.Render("Réponse finale (LLM)") + "\n" + body)
}

func (m Model) renderStatus() string {
	if m.loading {
		return m.spinner.View() + " " + statusStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m Model) renderCurrentCard() string {
	if m.page == nil || len(m.page.Cards) == 0 {
		if m.page != nil {
			return "Aucun résultat."
		}
		return "Lancez une recherche pour afficher les résultats."
	}
	c := m.page.Cards[m.cursor]
	head := fmt.Sprintf("%s  Document: %s  %s %s",
		badgeStyle.Render(fmt.Sprintf("Résultat %d/%d", c.Rank, len(m.page.Cards))),
		c.DocumentID,
		scoreBar(c.Score, 20),
		present.FormatPercent(c.Score))
	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width))

	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Texte du fragment"))
	b.WriteString("\n")
	b.WriteString(wrap.Render(present.DisplayText(c)))
	if c.Phrase != "" {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Phrase (LLM)"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(phraseStyle.Render(c.Phrase)))
	}
	return b.String()
}

const helpText = "enter rechercher · ctrl+p 1 phrase/résultat · ctrl+f réponse finale · ctrl+o LLM on/off · ctrl+t modèle · ↑/↓ résultats · ctrl+c quitter"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	phraseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	barFillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("10")).Padding(0, 1)
)

func scoreBar(score float64, width int) string {
	filled := present.BarFill(score, width)
	return barFillStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func nextModel(models []string, current string) string {
	for i, m := range models {
		if m == current {
			return models[(i+1)%len(models)]
		}
	}
	return models[0]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
