package token

// Sequence is one fixed-length alternative of a query. A nil entry is a
// position left empty by a quantifier.
type Sequence []*Token

// NonNull counts the occupied positions.
func (s Sequence) NonNull() int {
	n := 0
	for _, t := range s {
		if t != nil {
			n++
		}
	}
	return n
}

// Offset returns the corpus offset of position i: the number of occupied
// positions before it.
func (s Sequence) Offset(i int) int {
	n := 0
	for _, t := range s[:i] {
		if t != nil {
			n++
		}
	}
	return n
}

// Expand turns a list of tokens into fixed-length sequences. A token with
// quantifier {n,m} occupies m slots; each alternative holds k copies
// followed by m-k nil slots, for k from n to m. All sequences of one
// query have the same length. Alternatives are produced as the cartesian
// product in item order, the first item varying slowest.
func Expand(items []*Token) []Sequence {
	out := []Sequence{{}}
	for _, tok := range items {
		choices := slotChoices(tok)
		next := make([]Sequence, 0, len(out)*len(choices))
		for _, prefix := range out {
			for _, c := range choices {
				seq := make(Sequence, 0, len(prefix)+len(c))
				seq = append(seq, prefix...)
				seq = append(seq, c...)
				next = append(next, seq)
			}
		}
		out = next
	}
	return out
}

func slotChoices(tok *Token) [][]*Token {
	if !tok.Quantified() {
		return [][]*Token{{tok}}
	}
	choices := make([][]*Token, 0, tok.Max-tok.Min+1)
	for k := tok.Min; k <= tok.Max; k++ {
		slots := make([]*Token, tok.Max)
		for i := 0; i < k; i++ {
			slots[i] = tok
		}
		choices = append(choices, slots)
	}
	return choices
}
