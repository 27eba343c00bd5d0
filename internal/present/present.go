// Package present renders search pages for the terminal.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"warda/internal/service"
)

// Ellipsis is appended to fragments cut at the display limit.
const Ellipsis = " …"

// ClampScore bounds a similarity score to [0,1] and returns it with its
// percentage rounded to one decimal.
func ClampScore(score float64) (value, pct float64) {
	if math.IsNaN(score) {
		score = 0
	}
	value = math.Max(0, math.Min(1, score))
	pct = math.Round(value*1000) / 10
	return value, pct
}

// FormatPercent renders the clamped score as "83.0%".
func FormatPercent(score float64) string {
	_, pct := ClampScore(score)
	return fmt.Sprintf("%.1f%%", pct)
}

// DisplayText returns the card text with the ellipsis when it was cut.
func DisplayText(c service.Card) string {
	if c.Truncated {
		return c.Text + Ellipsis
	}
	return c.Text
}

// Plain writes a human-readable page.
type Plain struct {
	heading *color.Color
	label   *color.Color
	answer  *color.Color
	muted   *color.Color
}

// NewPlain builds a printer. Colors are disabled when noColor is set or the
// output is not a terminal.
func NewPlain(noColor bool) *Plain {
	p := &Plain{
		heading: color.New(color.Bold, color.FgMagenta),
		label:   color.New(color.FgHiBlack),
		answer:  color.New(color.FgGreen),
		muted:   color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.label, p.answer, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

// Print renders page to w.
func (p *Plain) Print(w io.Writer, page *service.Page) error {
	var b strings.Builder
	if page.FinalAnswer != "" {
		b.WriteString(p.heading.Sprint("Réponse finale (LLM)"))
		b.WriteString("\n")
		b.WriteString(p.answer.Sprint(page.FinalAnswer))
		b.WriteString("\n\n")
	}
	if len(page.Cards) == 0 {
		b.WriteString(p.muted.Sprint("Aucun résultat."))
		b.WriteString("\n")
	}
	for i, c := range page.Cards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s  %s %s\n",
			p.heading.Sprintf("Résultat %d", c.Rank),
			p.label.Sprintf("Document: %s", c.DocumentID),
			ScoreBar(c.Score, 20),
			FormatPercent(c.Score))
		b.WriteString(p.label.Sprint("Texte du fragment"))
		b.WriteString("\n")
		b.WriteString(DisplayText(c))
		b.WriteString("\n")
		if c.Phrase != "" {
			b.WriteString(p.label.Sprint("Phrase (LLM)"))
			b.WriteString("\n")
			b.WriteString(p.answer.Sprint(c.Phrase))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ScoreBar draws a fixed-width gauge for a score.
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := BarFill(score, width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// BarFill returns how many of width cells a gauge fills for score.
func BarFill(score float64, width int) int {
	if width <= 0 {
		return 0
	}
	value, _ := ClampScore(score)
	return int(math.Round(value * float64(width)))
}

// JSON writes the page as indented JSON.
func JSON(w io.Writer, page *service.Page) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(page)
}
