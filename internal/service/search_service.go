package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"warda/internal/domain"
)

// ErrEmptyQuestion is returned when the question is blank after trimming.
var ErrEmptyQuestion = errors.New("question is empty")

// Input ranges accepted by the backend.
const (
	MinTopK           = 1
	MaxTopK           = 20
	MinShowChars      = 200
	MaxShowChars      = 4000
	MinTimeout        = 10
	MaxTimeout        = 180
	MinMaxCharsForLLM = 300
	MaxMaxCharsForLLM = 2500
)

// QueryOptions are the user-adjustable search parameters.
type QueryOptions struct {
	Question       string
	TopK           int
	ShowChars      int
	UseLLM         bool
	Model          string
	Timeout        int
	MaxCharsForLLM int
}

// DefaultQueryOptions mirrors the defaults of the web form.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Question:       "c'est quoi l'acide ascorbique ?",
		TopK:           3,
		ShowChars:      1200,
		UseLLM:         true,
		Model:          "phi3:mini",
		Timeout:        60,
		MaxCharsForLLM: 900,
	}
}

// Clamp forces every numeric option into its accepted range. Zero values
// fall back to the defaults first.
func (o QueryOptions) Clamp() QueryOptions {
	def := DefaultQueryOptions()
	if o.TopK == 0 {
		o.TopK = def.TopK
	}
	if o.ShowChars == 0 {
		o.ShowChars = def.ShowChars
	}
	if o.Timeout == 0 {
		o.Timeout = def.Timeout
	}
	if o.MaxCharsForLLM == 0 {
		o.MaxCharsForLLM = def.MaxCharsForLLM
	}
	if strings.TrimSpace(o.Model) == "" {
		o.Model = def.Model
	}
	o.TopK = clamp(o.TopK, MinTopK, MaxTopK)
	o.ShowChars = clamp(o.ShowChars, MinShowChars, MaxShowChars)
	o.Timeout = clamp(o.Timeout, MinTimeout, MaxTimeout)
	o.MaxCharsForLLM = clamp(o.MaxCharsForLLM, MinMaxCharsForLLM, MaxMaxCharsForLLM)
	return o
}

// Request builds the wire request. The mode is forced to none when the LLM
// is disabled.
func (o QueryOptions) Request(mode domain.Mode) domain.SearchRequest {
	if !o.UseLLM || mode == "" {
		mode = domain.ModeNone
	}
	return domain.SearchRequest{
		Question:       strings.TrimSpace(o.Question),
		TopK:           o.TopK,
		MaxCharsForLLM: o.MaxCharsForLLM,
		UseOllama:      o.UseLLM,
		Model:          o.Model,
		Timeout:        o.Timeout,
		Mode:           mode,
	}
}

// Card is one result ready for display.
type Card struct {
	Rank       int               `json:"rank"`
	DocumentID domain.DocumentID `json:"id_document"`
	Score      float64           `json:"score"`
	Text       string            `json:"text"`
	Truncated  bool              `json:"truncated"`
	Phrase     string            `json:"phrase_llm,omitempty"`
}

// Page is the outcome of one query.
type Page struct {
	Question    string        `json:"question"`
	TopK        int           `json:"top_k"`
	Mode        domain.Mode   `json:"mode"`
	Cards       []Card        `json:"results"`
	FinalAnswer string        `json:"final_answer,omitempty"`
	Elapsed     time.Duration `json:"-"`
}

// SearchService runs questions against the backend and prepares the
// fragments for display.
type SearchService struct {
	client    domain.SearchClient
	formatter domain.Formatter
	log       logrus.FieldLogger
}

func NewSearchService(client domain.SearchClient, formatter domain.Formatter, log logrus.FieldLogger) *SearchService {
	return &SearchService{client: client, formatter: formatter, log: log}
}

// Query validates opts, calls the backend once and formats every fragment.
func (s *SearchService) Query(ctx context.Context, opts QueryOptions, mode domain.Mode) (*Page, error) {
	opts = opts.Clamp()
	req := opts.Request(mode)
	if req.Question == "" {
		return nil, ErrEmptyQuestion
	}

	entry := s.log.WithFields(logrus.Fields{
		"top_k": req.TopK,
		"mode":  req.Mode,
		"model": req.Model,
	})
	start := time.Now()
	resp, err := s.client.Search(ctx, req)
	if err != nil {
		entry.WithError(err).Warn("search failed")
		return nil, err
	}

	page := &Page{
		Question: resp.Question,
		TopK:     resp.TopK,
		Mode:     req.Mode,
		Cards:    make([]Card, 0, len(resp.Results)),
		Elapsed:  time.Since(start),
	}
	if page.Question == "" {
		page.Question = req.Question
	}
	if resp.FinalAnswer != nil {
		page.FinalAnswer = strings.TrimSpace(*resp.FinalAnswer)
	}
	for i, r := range resp.Results {
		text, cut := Truncate(s.formatter.Format(r.Fragment), opts.ShowChars)
		page.Cards = append(page.Cards, Card{
			Rank:       i + 1,
			DocumentID: r.DocumentID,
			Score:      r.Score,
			Text:       text,
			Truncated:  cut,
			Phrase:     strings.TrimSpace(r.Phrase),
		})
	}
	entry.WithFields(logrus.Fields{
		"results": len(page.Cards),
		"elapsed": page.Elapsed.String(),
	}).Info("search completed")
	return page, nil
}

// Health checks that the backend answers.
func (s *SearchService) Health(ctx context.Context) error {
	if err := s.client.Health(ctx); err != nil {
		return fmt.Errorf("backend unavailable: %w", err)
	}
	return nil
}

// Truncate keeps the first n characters of text and reports whether anything
// was dropped.
func Truncate(text string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text, false
	}
	return string(runes[:n]), true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
