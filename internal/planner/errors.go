package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFeatures is returned when no output feature is selected.
	ErrNoFeatures = errors.New("no output features selected")

	// ErrEmptySequence is returned for a sequence whose positions are all
	// empty quantifier slots.
	ErrEmptySequence = errors.New("token sequence has no occupied position")
)

// UnreachableFeatureError reports a feature whose table cannot be reached
// from the corpus root (or, for linked features, from the link target).
type UnreachableFeatureError struct {
	Feature string
	Err     error
}

func (e *UnreachableFeatureError) Error() string {
	return fmt.Sprintf("feature %s is unreachable: %v", e.Feature, e.Err)
}

func (e *UnreachableFeatureError) Unwrap() error {
	return e.Err
}
