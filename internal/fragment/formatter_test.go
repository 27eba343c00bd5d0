package fragment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   \n\n  ", ""},
		{"known title alone", "RÉGLEMENTATION", "RÉGLEMENTATION"},
		{"known title lower case", "réglementation", "réglementation"},
		{"soft merge", "Phrase un sans point\nsuite de la phrase.", "Phrase un sans point suite de la phrase."},
		{"bullets", "- item un\n• item deux", "- item un\n- item deux"},
		{"en dash bullet", "–   item trois", "- item trois"},
		{"blank before title", "Intro phrase.\nRÉSUMÉ GÉNÉRAL\nDétail ici.", "Intro phrase.\n\nRÉSUMÉ GÉNÉRAL\nDétail ici."},
		{"carriage returns", "Ligne un\r\nligne deux.", "Ligne un ligne deux."},
		{"inner whitespace", "  trop    d'espaces\t ici  ", "trop d'espaces ici"},
		{"strong terminator splits", "Première phrase.\nDeuxième phrase.", "Première phrase.\nDeuxième phrase."},
		{"closing paren splits", "Voir annexe (A)\nSuite du texte", "Voir annexe (A)\nSuite du texte"},
		{"colon splits", "Dosage :\n20 ppm", "Dosage :\n20 ppm"},
		{"hyphen without space is prose", "-item\nsuite", "-item suite"},
		{"glyph run collapses", "••• item", "- item"},
		{"bullet flushes paragraph", "Texte sans fin\n- point\nreprise", "Texte sans fin\n- point\nreprise"},
		{"consecutive titles", "LIMITATIONS\nRÉGLEMENTATION", "LIMITATIONS\n\nRÉGLEMENTATION"},
		{"caps heuristic", "Intro.\nACIDE ASCORBIQUE (E300)\nDosage 20 ppm.", "Intro.\n\nACIDE ASCORBIQUE (E300)\nDosage 20 ppm."},
		{"short caps is prose", "Texte\nABC", "Texte ABC"},
		{"merged caps paragraph counts as title", "Intro.\nABC\nDEF", "Intro.\n\nABC DEF"},
		{"caps hyphen line is a title", "Intro.\n- ABCDEF", "Intro.\n\n- ABCDEF"},
		{"leading byte order mark", "\ufeffLIMITATIONS\nTexte", "LIMITATIONS\nTexte"},
		{"byte order mark only line dropped", "Texte.\n\ufeff\nSuite", "Texte.\nSuite"},
		{"byte order mark between words", "un\ufeffdeux", "un deux"},
		{"next line char is not space", "a\u0085b", "a\u0085b"},
		{"next line char is not trimmed", "\u0085texte", "\u0085texte"},
		{"no-break space collapses", "un\u00a0\u00a0deux", "un deux"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.in))
		})
	}
}

func TestFormatCapsUpperBound(t *testing.T) {
	long := strings.Repeat("A", 61)
	assert.Equal(t, Prose, New().Classify(long))
	assert.Equal(t, Title, New().Classify(strings.Repeat("A", 60)))
	assert.Equal(t, Title, New().Classify(strings.Repeat("É", 6)))
	assert.Equal(t, Prose, New().Classify(strings.Repeat("É", 5)))
}

func TestFormatNeverTripleNewline(t *testing.T) {
	inputs := []string{
		"LIMITATIONS\n\n\n\nRÉGLEMENTATION\n\n\nSTATUT LÉGAL",
		"a\n\n\n\n\nb.\n\n\n\nc",
		"POINTS IMPORTANTS\n- un\n\n\n- deux\nPOINTS DE CONTRÔLE\n\n\n",
		"\n\n\n\n",
		"x.\nTABLE DE CONVERSION RAPIDE\nMODE D'EMPLOI EN PRODUCTION\nSPÉCIFICATIONS TECHNIQUES\n",
	}
	for _, in := range inputs {
		out := Format(in)
		assert.NotContains(t, out, "\n\n\n", "input %q", in)
		assert.Equal(t, strings.TrimSpace(out), out)
	}
}

func TestFormatIsStableOnFormattedText(t *testing.T) {
	inputs := []string{
		"Intro phrase.\nRÉSUMÉ GÉNÉRAL\nDétail ici.",
		"Texte coupé\nen deux\nPOINTS IMPORTANTS\n• un\n• deux\nFin.",
		"Dosages recommandés\n20 à 40 ppm\nselon la farine.\nLIMITATIONS\n- Ne pas dépasser la dose.",
	}
	for _, in := range inputs {
		once := Format(in)
		require.NotEmpty(t, once)
		assert.Equal(t, once, Format(once), "input %q", in)
	}
}

func TestTitleFollowedByTitleHasSingleBlank(t *testing.T) {
	out := Format("Texte.\nLIMITATIONS\nSTATUT LÉGAL\nsuite")
	assert.Equal(t, "Texte.\n\nLIMITATIONS\n\nSTATUT LÉGAL\nsuite", out)
}

func TestCustomVocabulary(t *testing.T) {
	f := New(WithTitles("Conservation"))
	assert.Equal(t, "Intro.\n\nconservation\nAu sec.", f.Format("Intro.\nconservation\nAu sec."))

	// default formatter does not know the heading
	assert.Equal(t, "Intro.\nconservation Au sec.", Format("Intro.\nconservation\nAu sec."))
}

func TestWithVocabularyReplacesDefaults(t *testing.T) {
	f := New(WithVocabulary(NewVocabulary("Stockage")))
	assert.Equal(t, Prose, f.Classify("limitations"))
	assert.Equal(t, Title, f.Classify("STOCKAGE"))
	assert.Equal(t, Title, f.Classify("stockage"))
}

func TestWithCapsBounds(t *testing.T) {
	f := New(WithCapsBounds(3, 10))
	assert.Equal(t, Title, f.Classify("ABC"))
	assert.Equal(t, Prose, f.Classify("ABCDEFGHIJK"))

	// non-positive keeps defaults
	g := New(WithCapsBounds(0, -1))
	assert.Equal(t, Prose, g.Classify("ABC"))
}

func TestIsBullet(t *testing.T) {
	assert.True(t, IsBullet("- x"))
	assert.True(t, IsBullet("  – x"))
	assert.True(t, IsBullet("•\tx"))
	assert.False(t, IsBullet("-x"))
	assert.False(t, IsBullet("-"))
	assert.False(t, IsBullet("* x"))
	assert.True(t, IsBullet("-\ufeffx"))
	assert.False(t, IsBullet("-\u0085x"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "title", Title.String())
	assert.Equal(t, "bullet", Bullet.String())
	assert.Equal(t, "prose", Prose.String())
}
