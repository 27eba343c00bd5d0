package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warda/internal/domain"
	"warda/internal/present"
	"warda/internal/service"
)

type call struct {
	opts service.QueryOptions
	mode domain.Mode
}

type fakePort struct {
	calls []call
	page  *service.Page
	err   error
}

func (f *fakePort) Query(_ context.Context, opts service.QueryOptions, mode domain.Mode) (*service.Page, error) {
	f.calls = append(f.calls, call{opts, mode})
	return f.page, f.err
}

func samplePage() *service.Page {
	return &service.Page{
		Question:    "acide ascorbique",
		TopK:        2,
		FinalAnswer: "Un antioxydant (E300).",
		Cards: []service.Card{
			{Rank: 1, DocumentID: "1", Score: 0.9, Text: "RÉSUMÉ GÉNÉRAL\nAntioxydant.", Phrase: "Phrase un."},
			{Rank: 2, DocumentID: "2", Score: 0.3, Text: "Second fragment", Truncated: true},
		},
	}
}

// drain runs cmd and any batched commands, returning the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sized(t *testing.T, port SearchPort, opts service.QueryOptions) Model {
	t.Helper()
	m := New(port, opts, []string{"phi3:mini", "mistral", "llama3.1"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range drain(cmd) {
		switch msg.(type) {
		case pageMsg, errMsg:
			next, _ := m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func TestEnterRunsPlainSearch(t *testing.T) {
	port := &fakePort{page: samplePage()}
	m := sized(t, port, service.DefaultQueryOptions())

	m, cmd := press(m, tea.KeyEnter)
	assert.True(t, m.loading)
	m = feed(t, m, cmd)

	require.Len(t, port.calls, 1)
	assert.Equal(t, domain.ModeNone, port.calls[0].mode)
	assert.Equal(t, "c'est quoi l'acide ascorbique ?", port.calls[0].opts.Question)
	assert.False(t, m.loading)
	assert.Contains(t, m.status, "2 fragment(s)")

	view := m.View()
	assert.Contains(t, view, "Réponse finale (LLM)")
	assert.Contains(t, view, "Résultat 1/2")
	assert.Contains(t, view, "90.0%")
}

func TestLLMModesAndToggle(t *testing.T) {
	port := &fakePort{page: samplePage()}
	m := sized(t, port, service.DefaultQueryOptions())

	m, cmd := press(m, tea.KeyCtrlP)
	m = feed(t, m, cmd)
	m, cmd = press(m, tea.KeyCtrlF)
	m = feed(t, m, cmd)
	require.Len(t, port.calls, 2)
	assert.Equal(t, domain.ModePerResult, port.calls[0].mode)
	assert.Equal(t, domain.ModeFinal, port.calls[1].mode)

	// LLM off: generation keys do nothing
	m, _ = press(m, tea.KeyCtrlO)
	assert.False(t, m.opts.UseLLM)
	_, cmd = press(m, tea.KeyCtrlF)
	assert.Nil(t, cmd)
	assert.Len(t, port.calls, 2)
}

func TestSearchIgnoredWhileLoading(t *testing.T) {
	port := &fakePort{page: samplePage()}
	m := sized(t, port, service.DefaultQueryOptions())

	m, first := press(m, tea.KeyEnter)
	require.NotNil(t, first)
	_, second := press(m, tea.KeyEnter)
	assert.Nil(t, second)
}

func TestBlankQuestionDoesNothing(t *testing.T) {
	port := &fakePort{page: samplePage()}
	opts := service.DefaultQueryOptions()
	opts.Question = ""
	m := sized(t, port, opts)

	m, cmd := press(m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
}

func TestErrorShownInStatus(t *testing.T) {
	port := &fakePort{err: errors.New("API error 500: boom")}
	m := sized(t, port, service.DefaultQueryOptions())

	m, cmd := press(m, tea.KeyEnter)
	m = feed(t, m, cmd)
	assert.Equal(t, "Erreur: API error 500: boom", m.status)
	assert.False(t, m.loading)
}

func TestBrowseCards(t *testing.T) {
	port := &fakePort{page: samplePage()}
	m := sized(t, port, service.DefaultQueryOptions())
	m, cmd := press(m, tea.KeyEnter)
	m = feed(t, m, cmd)

	m, _ = press(m, tea.KeyDown)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderCurrentCard(), "Second fragment …")
	m, _ = press(m, tea.KeyDown)
	assert.Equal(t, 0, m.cursor)
	m, _ = press(m, tea.KeyUp)
	assert.Equal(t, 1, m.cursor)
}

func TestCycleModel(t *testing.T) {
	m := sized(t, &fakePort{}, service.DefaultQueryOptions())
	m, _ = press(m, tea.KeyCtrlT)
	assert.Equal(t, "mistral", m.opts.Model)
	m, _ = press(m, tea.KeyCtrlT)
	m, _ = press(m, tea.KeyCtrlT)
	assert.Equal(t, "phi3:mini", m.opts.Model)
}

func TestQuit(t *testing.T) {
	m := sized(t, &fakePort{}, service.DefaultQueryOptions())
	_, cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewBeforeResize(t *testing.T) {
	m := New(&fakePort{}, service.DefaultQueryOptions(), nil)
	assert.Equal(t, "Loading...", m.View())
}

func TestScoreBarMatchesPlainGauge(t *testing.T) {
	bar := scoreBar(0.66, 10)
	assert.Equal(t, present.BarFill(0.66, 10), strings.Count(bar, "█"))
	assert.Equal(t, 3, strings.Count(bar, "░"))
}
