package condition

import (
	"fmt"

	"github.com/roach88/corpusql/internal/token"
)

// UnsupportedKindError reports a specifier kind the schema designates no
// feature for, such as a transcript query against a corpus without
// transcriptions.
type UnsupportedKindError struct {
	Kind   token.Kind
	Schema string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("%s specifiers are not supported by %s", e.Kind, e.Schema)
}
