package token

import (
	"strconv"
	"strings"
)

// Kind names one of the specifier lists a Token carries.
type Kind int

const (
	KindWord Kind = iota
	KindLemma
	KindPOS
	KindTranscript
	KindGloss
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindLemma:
		return "lemma"
	case KindPOS:
		return "pos"
	case KindTranscript:
		return "transcript"
	case KindGloss:
		return "gloss"
	default:
		return "unknown"
	}
}

// Kinds lists every Kind in condition order.
var Kinds = []Kind{KindWord, KindLemma, KindPOS, KindTranscript, KindGloss}

// MaxRepeat bounds the maximum of a quantifier.
const MaxRepeat = 16

// Specifier is one alternative of a specifier list.
//
// Text is the alternative as written (escapes kept, wildcards as * and ?)
// and is what String re-serialises. Pattern is the LIKE pattern, or the
// regular expression in regex mode. Literal is the unescaped text used
// for equality and IN conditions when Wildcard is false.
type Specifier struct {
	Text     string
	Pattern  string
	Literal  string
	Wildcard bool
	Regex    bool
}

// MatchesAll reports whether the specifier matches every value.
func (s Specifier) MatchesAll() bool {
	if s.Regex {
		return s.Text == "*" || s.Pattern == ".*"
	}
	return s.Wildcard && strings.Trim(s.Pattern, "%") == ""
}

// Token is a compiled query item.
type Token struct {
	Raw       string
	Negated   bool
	Lemmatize bool
	Regex     bool

	Words       []Specifier
	Lemmas      []Specifier
	POS         []Specifier
	Transcripts []Specifier
	Glosses     []Specifier

	Min, Max int
}

// Specifiers returns the list for kind k.
func (t *Token) Specifiers(k Kind) []Specifier {
	switch k {
	case KindWord:
		return t.Words
	case KindLemma:
		return t.Lemmas
	case KindPOS:
		return t.POS
	case KindTranscript:
		return t.Transcripts
	case KindGloss:
		return t.Glosses
	}
	return nil
}

func (t *Token) setSpecifiers(k Kind, specs []Specifier) {
	switch k {
	case KindWord:
		t.Words = specs
	case KindLemma:
		t.Lemmas = specs
	case KindPOS:
		t.POS = specs
	case KindTranscript:
		t.Transcripts = specs
	case KindGloss:
		t.Glosses = specs
	}
}

// Quantified reports whether the token spans anything other than exactly
// one position.
func (t *Token) Quantified() bool {
	return t.Min != 1 || t.Max != 1
}

// IsAny reports whether every specifier list is empty or matches all
// values, so the token places no restriction on its position.
func (t *Token) IsAny() bool {
	for _, k := range Kinds {
		for _, s := range t.Specifiers(k) {
			if !s.MatchesAll() {
				return false
			}
		}
	}
	return true
}

// String re-serialises the token. Parsing the result yields an equal
// token.
func (t *Token) String() string {
	var b strings.Builder
	if t.Negated {
		b.WriteByte('~')
	}
	if t.Lemmatize {
		b.WriteByte('#')
	}
	switch {
	case len(t.Words) > 0:
		b.WriteString(joinText(t.Words))
	case len(t.Lemmas) > 0:
		b.WriteString("[" + joinText(t.Lemmas) + "]")
	case len(t.Transcripts) > 0:
		b.WriteString("/" + joinText(t.Transcripts) + "/")
	case len(t.Glosses) > 0:
		b.WriteString(`"` + joinText(t.Glosses) + `"`)
	}
	if len(t.POS) > 0 {
		b.WriteString(".[" + joinText(t.POS) + "]")
	}
	if t.Quantified() {
		b.WriteByte('{')
		if t.Min > 0 || t.Min == t.Max {
			b.WriteString(strconv.Itoa(t.Min))
		}
		if t.Min != t.Max {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(t.Max))
		}
		b.WriteByte('}')
	}
	return b.String()
}

func joinText(specs []Specifier) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.Text
	}
	return strings.Join(parts, "|")
}

// Specificity estimates how selective the token is. Higher is more
// selective. Each literal character scores one point and each wildcard
// costs four; a list scores as its weakest alternative and lists add up.
// Negated tokens score below any positive token.
func (t *Token) Specificity() int {
	if t == nil {
		return -1 << 20
	}
	total := 0
	for _, k := range Kinds {
		specs := t.Specifiers(k)
		if len(specs) == 0 {
			continue
		}
		weakest := specifierScore(specs[0])
		for _, s := range specs[1:] {
			if sc := specifierScore(s); sc < weakest {
				weakest = sc
			}
		}
		total += weakest
	}
	if t.Lemmatize {
		total /= 2
	}
	if t.Negated {
		return -1 - total
	}
	return total
}

func specifierScore(s Specifier) int {
	if s.MatchesAll() {
		return 0
	}
	score := 0
	escaped := false
	for _, r := range s.Text {
		switch {
		case escaped:
			score++
			escaped = false
		case r == '\\':
			escaped = true
		case !s.Regex && (r == '*' || r == '?'):
			score -= 4
		default:
			score++
		}
	}
	if score < 1 {
		score = 1
	}
	return score
}
