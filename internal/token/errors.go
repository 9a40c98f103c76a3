package token

import "fmt"

// SyntaxError reports a malformed query item. Offset counts characters
// (not bytes) of the NFC-normalised input.
type SyntaxError struct {
	Input  string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in query item %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func syntaxError(input string, offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: input, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
