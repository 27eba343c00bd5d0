package fragment

import "golang.org/x/text/cases"

// defaultTitles are the section headings found in the datasheets indexed by
// the search backend.
var defaultTitles = []string{
	"résumé général",
	"propriétés principales",
	"points importants",
	"limitations",
	"alternatives et complémentarité",
	"réglementation",
	"statut légal",
	"dosages recommandés",
	"table de conversion rapide",
	"spécifications techniques",
	"caractéristiques du produit",
	"mode d'emploi en production",
	"points de contrôle",
}

// DefaultTitles returns a copy of the built-in heading vocabulary.
func DefaultTitles() []string {
	out := make([]string, len(defaultTitles))
	copy(out, defaultTitles)
	return out
}

// Vocabulary is a set of known section headings matched case-insensitively.
type Vocabulary struct {
	phrases map[string]struct{}
}

// NewVocabulary builds a vocabulary from phrases. Blank phrases are ignored.
func NewVocabulary(phrases ...string) *Vocabulary {
	v := &Vocabulary{phrases: make(map[string]struct{}, len(phrases))}
	v.Add(phrases...)
	return v
}

// Add registers more headings.
func (v *Vocabulary) Add(phrases ...string) {
	for _, p := range phrases {
		key := foldKey(p)
		if key == "" {
			continue
		}
		v.phrases[key] = struct{}{}
	}
}

// Contains reports whether line is one of the registered headings.
func (v *Vocabulary) Contains(line string) bool {
	if v == nil {
		return false
	}
	_, ok := v.phrases[foldKey(line)]
	return ok
}

// Len returns the number of distinct headings.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.phrases)
}

func (v *Vocabulary) clone() *Vocabulary {
	out := &Vocabulary{phrases: make(map[string]struct{}, len(v.phrases))}
	for k := range v.phrases {
		out.phrases[k] = struct{}{}
	}
	return out
}

// foldKey trims and case-folds s. A Caser keeps state, so each call gets its own.
func foldKey(s string) string {
	s = trimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
