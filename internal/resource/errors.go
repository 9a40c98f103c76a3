package resource

import (
	"errors"
	"fmt"
)

// ErrNoItems is returned when a query has no items.
var ErrNoItems = errors.New("query has no items")

// ErrNoResource is returned by Holder before a resource was stored.
var ErrNoResource = errors.New("no corpus resource selected")

// CompileError reports the query item that failed to compile. Item is
// 1-based; 0 means the failure concerns the query as a whole.
type CompileError struct {
	QueryID string
	Item    int
	Input   string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Item > 0 {
		return fmt.Sprintf("compile query %s: item %d (%q): %v", e.QueryID, e.Item, e.Input, e.Err)
	}
	return fmt.Sprintf("compile query %s: %v", e.QueryID, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
