package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Mode selects which LLM generation the backend runs on top of retrieval.
type Mode string

const (
	ModeNone      Mode = "none"
	ModePerResult Mode = "per_result"
	ModeFinal     Mode = "final"
)

// ParseMode accepts the wire names of the generation modes.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModePerResult, ModeFinal:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want none, per_result or final)", s)
}

// SearchRequest is the JSON body posted to the search endpoint.
type SearchRequest struct {
	Question       string `json:"question"`
	TopK           int    `json:"top_k"`
	MaxCharsForLLM int    `json:"max_chars_for_llm"`
	UseOllama      bool   `json:"use_ollama"`
	Model          string `json:"model"`
	Timeout        int    `json:"timeout"`
	Mode           Mode   `json:"mode"`
}

// DocumentID is the backend document identifier, sent either as a number or
// as a string. The raw textual form is kept.
type DocumentID string

// UnmarshalJSON accepts numbers, strings and null.
func (d *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id_document: %w", err)
	}
	*d = DocumentID(n.String())
	return nil
}

// MarshalJSON writes integer ids back as numbers.
func (d DocumentID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(d), 10, 64); err == nil {
		return []byte(d), nil
	}
	return json.Marshal(string(d))
}

// SearchResult is one ranked fragment.
type SearchResult struct {
	DocumentID DocumentID `json:"id_document"`
	Score      float64    `json:"score"`
	Fragment   string     `json:"texte_fragment"`
	Phrase     string     `json:"phrase_llm,omitempty"`
}

// SearchResponse is the search endpoint reply.
type SearchResponse struct {
	Question    string         `json:"question"`
	TopK        int            `json:"top_k"`
	Results     []SearchResult `json:"results"`
	FinalAnswer *string        `json:"final_answer,omitempty"`
}

// SearchClient talks to the remote semantic-search backend.
type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Health(ctx context.Context) error
}

// Formatter turns raw fragment text into display text.
type Formatter interface {
	Format(raw string) string
}
