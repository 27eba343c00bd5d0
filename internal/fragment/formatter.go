// Package fragment reflows raw text extracted from PDF datasheets into
// display-ready lines: headings on their own line, bullets normalized to a
// leading "- ", and soft-wrapped sentence pieces merged back into paragraphs.
package fragment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the classification of a single trimmed line.
type Kind int

const (
	Prose Kind = iota
	Title
	Bullet
)

func (k Kind) String() string {
	switch k {
	case Title:
		return "title"
	case Bullet:
		return "bullet"
	default:
		return "prose"
	}
}

const (
	DefaultCapsMinLen = 6
	DefaultCapsMaxLen = 60

	strongTerminators = ".:;!?)"
	capsSymbols       = " ()°/%*.-"
)

var (
	bulletGlyphRe = regexp.MustCompile(`•+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Formatter holds the heading vocabulary and ALL-CAPS bounds. It is not
// modified after New returns and may be shared between goroutines.
type Formatter struct {
	titles  *Vocabulary
	capsMin int
	capsMax int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithTitles adds headings on top of the current vocabulary.
func WithTitles(phrases ...string) Option {
	return func(f *Formatter) { f.titles.Add(phrases...) }
}

// WithVocabulary replaces the vocabulary. The vocabulary is copied.
func WithVocabulary(v *Vocabulary) Option {
	return func(f *Formatter) {
		if v == nil {
			f.titles = NewVocabulary()
			return
		}
		f.titles = v.clone()
	}
}

// WithCapsBounds sets the inclusive length range, in characters, of lines
// treated as ALL-CAPS headings. Non-positive values keep the defaults.
func WithCapsBounds(minLen, maxLen int) Option {
	return func(f *Formatter) {
		if minLen > 0 {
			f.capsMin = minLen
		}
		if maxLen > 0 {
			f.capsMax = maxLen
		}
	}
}

// New returns a Formatter seeded with DefaultTitles.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		titles:  NewVocabulary(defaultTitles...),
		capsMin: DefaultCapsMinLen,
		capsMax: DefaultCapsMaxLen,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var std = New()

// Format reflows raw with the default vocabulary.
func Format(raw string) string { return std.Format(raw) }

// Format reflows raw fragment text. It never fails; empty or blank input
// yields "".
func (f *Formatter) Format(raw string) string {
	s := strings.ReplaceAll(raw, "\r", "")
	s = bulletGlyphRe.ReplaceAllString(s, "-")

	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = collapseSpaces(l)
		if l != "" {
			lines = append(lines, l)
		}
	}

	var out []string
	var buf string
	flush := func() {
		if b := trimSpace(buf); b != "" {
			out = append(out, b)
		}
		buf = ""
	}

	for _, line := range lines {
		switch f.Classify(line) {
		case Title:
			flush()
			out = append(out, line)
		case Bullet:
			flush()
			out = append(out, normalizeBullet(line))
		default:
			switch {
			case buf == "":
				buf = line
			case !endsStrong(buf):
				buf += " " + line
			default:
				flush()
				buf = line
			}
		}
	}
	flush()

	pretty := make([]string, 0, len(out)*2)
	for _, part := range out {
		if f.IsTitle(part) && len(pretty) > 0 {
			pretty = append(pretty, "")
		}
		pretty = append(pretty, part)
	}

	joined := blankRunRe.ReplaceAllString(strings.Join(pretty, "\n"), "\n\n")
	return trimSpace(joined)
}

// Classify reports the kind of line. Headings win over bullets, so
// "- ABCDEF" is a heading.
func (f *Formatter) Classify(line string) Kind {
	if f.IsTitle(line) {
		return Title
	}
	if IsBullet(line) {
		return Bullet
	}
	return Prose
}

// IsTitle reports whether line is a known heading or an ALL-CAPS line within
// the configured length range.
func (f *Formatter) IsTitle(line string) bool {
	s := trimSpace(line)
	if s == "" {
		return false
	}
	if f.titles.Contains(s) {
		return true
	}
	n := utf8.RuneCountInString(s)
	return n >= f.capsMin && n <= f.capsMax && allCaps(s)
}

// IsBullet reports whether line starts with -, – or • followed by whitespace.
func IsBullet(line string) bool {
	_, ok := cutBullet(trimSpace(line))
	return ok
}

func cutBullet(s string) (string, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if r != '-' && r != '–' && r != '•' {
		return "", false
	}
	rest := s[size:]
	trimmed := strings.TrimLeftFunc(rest, isSpace)
	if len(trimmed) == len(rest) {
		return "", false
	}
	return trimmed, true
}

func normalizeBullet(line string) string {
	s := trimSpace(line)
	if rest, ok := cutBullet(s); ok {
		s = rest
	}
	return "- " + s
}

func allCaps(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r >= 'À' && r <= 'Ö', r >= 'Ø' && r <= 'Ý':
		case strings.ContainsRune(capsSymbols, r):
		default:
			return false
		}
	}
	return true
}

func endsStrong(s string) bool {
	return s != "" && strings.IndexByte(strongTerminators, s[len(s)-1]) >= 0
}

func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace is unicode.IsSpace plus the byte order mark, minus NEL. PDF
// extraction often leaves a leading BOM.
func isSpace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\ufeff':
		return true
	}
	return unicode.IsSpace(r)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
