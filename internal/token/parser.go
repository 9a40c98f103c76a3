package token

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// PartOfSpeechFunc reports whether a bracket element names a
// part-of-speech tag in the active corpus. The candidate is passed as
// written, wildcards included.
type PartOfSpeechFunc func(candidate string) bool

// Parser compiles query items. A Parser memoises part-of-speech answers
// and is meant to live for one query compilation. It is not safe for
// concurrent use.
type Parser struct {
	Regex          bool
	IsPartOfSpeech PartOfSpeechFunc

	posCache map[string]bool
}

// NewParser returns a Parser. isPOS may be nil, in which case bare
// brackets are always lemma specifiers.
func NewParser(regex bool, isPOS PartOfSpeechFunc) *Parser {
	return &Parser{Regex: regex, IsPartOfSpeech: isPOS}
}

// Parse compiles a query item using a Parser without a part-of-speech
// predicate.
func Parse(raw string) (*Token, error) {
	return NewParser(false, nil).Parse(raw)
}

func (p *Parser) isPOS(candidate string) bool {
	if p.IsPartOfSpeech == nil {
		return false
	}
	if v, ok := p.posCache[candidate]; ok {
		return v
	}
	if p.posCache == nil {
		p.posCache = make(map[string]bool)
	}
	v := p.IsPartOfSpeech(candidate)
	p.posCache[candidate] = v
	return v
}

type scanState int

const (
	stateNormal scanState = iota
	statePOSSeparator
	stateBracket
	stateTranscript
	stateQuote
	stateAfterGroup
	stateQuantifier
	stateDone
)

var groupClose = map[scanState]rune{
	stateBracket:    ']',
	stateTranscript: '/',
	stateQuote:      '"',
}

type specBuilder struct {
	text, pattern, literal strings.Builder
	wildcard               bool
	n                      int
}

func (b *specBuilder) add(r rune, regex bool) {
	b.n++
	if regex {
		b.text.WriteRune(r)
		b.pattern.WriteRune(r)
		b.literal.WriteRune(r)
		return
	}
	switch r {
	case '*':
		b.text.WriteByte('*')
		b.pattern.WriteByte('%')
		b.wildcard = true
	case '?':
		b.text.WriteByte('?')
		b.pattern.WriteByte('_')
		b.wildcard = true
	case '%', '_':
		b.text.WriteRune(r)
		b.pattern.WriteByte('\\')
		b.pattern.WriteRune(r)
		b.literal.WriteRune(r)
	default:
		b.text.WriteRune(r)
		b.pattern.WriteRune(r)
		b.literal.WriteRune(r)
	}
}

func (b *specBuilder) addEscaped(r rune, regex bool) {
	b.n++
	b.text.WriteByte('\\')
	b.text.WriteRune(r)
	if regex {
		b.pattern.WriteByte('\\')
		b.pattern.WriteRune(r)
		b.literal.WriteByte('\\')
		b.literal.WriteRune(r)
		return
	}
	if r == '%' || r == '_' || r == '\\' {
		b.pattern.WriteByte('\\')
	}
	b.pattern.WriteRune(r)
	b.literal.WriteRune(r)
}

func (b *specBuilder) build(regex bool) Specifier {
	s := Specifier{
		Text:     b.text.String(),
		Pattern:  b.pattern.String(),
		Literal:  b.literal.String(),
		Wildcard: b.wildcard,
		Regex:    regex,
	}
	*b = specBuilder{}
	return s
}

type scanner struct {
	p     *Parser
	input string
	runes []rune
	tok   *Token

	state        scanState
	groupKind    Kind
	groupStart   int
	sepFromGroup bool
	explicitPOS  bool

	cur  specBuilder
	alts []Specifier

	quant      strings.Builder
	quantStart int
}

// Parse compiles a single query item. Input is NFC-normalised and
// trimmed of surrounding whitespace first.
func (p *Parser) Parse(raw string) (*Token, error) {
	input := norm.NFC.String(strings.TrimSpace(raw))
	s := &scanner{
		p:     p,
		input: input,
		runes: []rune(input),
		tok:   &Token{Raw: input, Regex: p.Regex, Min: 1, Max: 1},
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	s.classifyBrackets()
	return s.tok, nil
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	return syntaxError(s.input, offset, format, args...)
}

func (s *scanner) run() error {
	i := 0
	for ; i < len(s.runes); i++ {
		switch s.runes[i] {
		case '~':
			s.tok.Negated = !s.tok.Negated
			continue
		case '#':
			s.tok.Lemmatize = true
			continue
		}
		break
	}

	for ; i < len(s.runes); i++ {
		r := s.runes[i]
		var err error
		switch s.state {
		case stateNormal:
			i, err = s.normal(i, r)
		case statePOSSeparator:
			if r == '[' {
				if err = s.finishWords(i); err == nil {
					s.openGroup(stateBracket, KindPOS, i)
				}
				break
			}
			if s.sepFromGroup {
				return s.errorf(i, "expected '[' after '.'")
			}
			s.cur.add('.', s.p.Regex)
			s.state = stateNormal
			i--
		case stateBracket, stateTranscript, stateQuote:
			i, err = s.group(i, r)
		case stateAfterGroup:
			switch r {
			case '.':
				s.state = statePOSSeparator
				s.sepFromGroup = true
			case '{':
				s.openQuantifier(i)
			default:
				return s.errorf(i, "unexpected %q after closing delimiter", r)
			}
		case stateQuantifier:
			err = s.quantifier(i, r)
		case stateDone:
			return s.errorf(i, "unexpected %q after quantifier", r)
		}
		if err != nil {
			return err
		}
	}
	return s.finish()
}

func (s *scanner) normal(i int, r rune) (int, error) {
	switch {
	case r == '\\':
		if i+1 >= len(s.runes) {
			return i, s.errorf(i, "dangling escape")
		}
		i++
		s.cur.addEscaped(s.runes[i], s.p.Regex)
	case r == '|':
		if s.cur.n == 0 {
			return i, s.errorf(i, "empty alternative")
		}
		s.alts = append(s.alts, s.cur.build(s.p.Regex))
	case r == '[' || r == '/' || r == '"':
		if s.cur.n > 0 || len(s.alts) > 0 {
			return i, s.errorf(i, "unexpected %q inside word specifier", r)
		}
		switch r {
		case '[':
			s.openGroup(stateBracket, KindLemma, i)
		case '/':
			s.openGroup(stateTranscript, KindTranscript, i)
		default:
			s.openGroup(stateQuote, KindGloss, i)
		}
	case r == '{':
		if s.cur.n == 0 && len(s.alts) == 0 {
			return i, s.errorf(i, "quantifier without specifier")
		}
		if err := s.finishWords(i); err != nil {
			return i, err
		}
		s.openQuantifier(i)
	case r == '.':
		s.state = statePOSSeparator
		s.sepFromGroup = false
	case unicode.IsSpace(r):
		return i, s.errorf(i, "unexpected whitespace")
	default:
		s.cur.add(r, s.p.Regex)
	}
	return i, nil
}

func (s *scanner) group(i int, r rune) (int, error) {
	switch {
	case r == groupClose[s.state]:
		if s.cur.n == 0 {
			return i, s.errorf(i, "empty alternative")
		}
		s.alts = append(s.alts, s.cur.build(s.p.Regex))
		if err := s.assign(s.groupKind, i); err != nil {
			return i, err
		}
		s.state = stateAfterGroup
	case r == '\\':
		if i+1 >= len(s.runes) {
			return i, s.errorf(i, "dangling escape")
		}
		i++
		s.cur.addEscaped(s.runes[i], s.p.Regex)
	case r == '|':
		if s.cur.n == 0 {
			return i, s.errorf(i, "empty alternative")
		}
		s.alts = append(s.alts, s.cur.build(s.p.Regex))
	case r == '[' && s.state == stateBracket:
		return i, s.errorf(i, "nested '['")
	case unicode.IsSpace(r) && s.state == stateBracket:
		return i, s.errorf(i, "unexpected whitespace")
	default:
		s.cur.add(r, s.p.Regex)
	}
	return i, nil
}

func (s *scanner) openGroup(state scanState, kind Kind, offset int) {
	s.state = state
	s.groupKind = kind
	s.groupStart = offset
}

func (s *scanner) openQuantifier(offset int) {
	s.state = stateQuantifier
	s.quantStart = offset
	s.quant.Reset()
}

func (s *scanner) quantifier(i int, r rune) error {
	switch {
	case r >= '0' && r <= '9':
		s.quant.WriteRune(r)
	case r == ',':
		if strings.ContainsRune(s.quant.String(), ',') {
			return s.errorf(i, "doubled comma in quantifier")
		}
		s.quant.WriteRune(r)
	case r == '}':
		if err := s.setQuantifier(s.quant.String()); err != nil {
			return err
		}
		s.state = stateDone
	default:
		return s.errorf(i, "illegal character %q in quantifier", r)
	}
	return nil
}

func (s *scanner) setQuantifier(q string) error {
	if q == "" {
		return s.errorf(s.quantStart, "empty quantifier")
	}
	lo, hi, hasComma := strings.Cut(q, ",")
	if !hasComma {
		hi = lo
	}
	if hi == "" {
		return s.errorf(s.quantStart, "quantifier needs a maximum")
	}
	if lo == "" {
		lo = "0"
	}
	minN, err := strconv.Atoi(lo)
	if err != nil {
		return s.errorf(s.quantStart, "invalid quantifier minimum %q", lo)
	}
	maxN, err := strconv.Atoi(hi)
	if err != nil {
		return s.errorf(s.quantStart, "invalid quantifier maximum %q", hi)
	}
	switch {
	case maxN == 0:
		return s.errorf(s.quantStart, "quantifier maximum must be positive")
	case minN > maxN:
		return s.errorf(s.quantStart, "quantifier minimum %d exceeds maximum %d", minN, maxN)
	case maxN > MaxRepeat:
		return s.errorf(s.quantStart, "quantifier maximum %d exceeds %d", maxN, MaxRepeat)
	}
	s.tok.Min, s.tok.Max = minN, maxN
	return nil
}

// finishWords closes a pending word specifier list, if any.
func (s *scanner) finishWords(offset int) error {
	if s.cur.n == 0 && len(s.alts) == 0 {
		return nil
	}
	if s.cur.n == 0 {
		return s.errorf(offset, "empty alternative")
	}
	s.alts = append(s.alts, s.cur.build(s.p.Regex))
	return s.assign(KindWord, offset)
}

func (s *scanner) assign(kind Kind, offset int) error {
	if len(s.tok.Specifiers(kind)) > 0 {
		return s.errorf(offset, "duplicate %s specifier", kind)
	}
	s.tok.setSpecifiers(kind, s.alts)
	s.alts = nil
	if kind == KindPOS {
		s.explicitPOS = true
	}
	return nil
}

func (s *scanner) finish() error {
	end := len(s.runes)
	switch s.state {
	case stateNormal:
		if err := s.finishWords(end); err != nil {
			return err
		}
	case statePOSSeparator:
		if s.sepFromGroup {
			return s.errorf(end, "expected '[' after '.'")
		}
		s.cur.add('.', s.p.Regex)
		if err := s.finishWords(end); err != nil {
			return err
		}
	case stateBracket, stateTranscript, stateQuote:
		return s.errorf(s.groupStart, "unterminated %q", s.runes[s.groupStart])
	case stateQuantifier:
		return s.errorf(s.quantStart, "unterminated quantifier")
	}
	for _, k := range Kinds {
		if len(s.tok.Specifiers(k)) > 0 {
			return nil
		}
	}
	return s.errorf(end, "empty query item")
}

// classifyBrackets turns a bare bracket into a part-of-speech list when
// the predicate accepts every element.
func (s *scanner) classifyBrackets() {
	if s.explicitPOS || len(s.tok.Lemmas) == 0 {
		return
	}
	for _, sp := range s.tok.Lemmas {
		if !s.p.isPOS(sp.Text) {
			return
		}
	}
	s.tok.POS, s.tok.Lemmas = s.tok.Lemmas, nil
}
