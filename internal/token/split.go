package token

import (
	"strings"
	"unicode"
)

// SplitQuery splits a query string into items at whitespace that is not
// inside brackets, slashes or quotes, and not escaped.
func SplitQuery(query string) []string {
	var (
		items   []string
		cur     strings.Builder
		closing rune
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 {
			items = append(items, cur.String())
			cur.Reset()
		}
	}
	for _, r := range query {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case closing != 0:
			if r == closing {
				closing = 0
			}
		case r == '[':
			closing = ']'
		case r == '/' || r == '"':
			closing = r
		case unicode.IsSpace(r):
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return items
}
