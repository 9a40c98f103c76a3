package schema

import "fmt"

// MalformedFeatureError reports a resource feature that does not follow the
// naming convention or references something the schema does not declare.
type MalformedFeatureError struct {
	Feature string
	Reason  string
}

func (e *MalformedFeatureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed resource feature %q", e.Feature)
	}
	return fmt.Sprintf("malformed resource feature %q: %s", e.Feature, e.Reason)
}

func malformed(feature, format string, args ...any) *MalformedFeatureError {
	return &MalformedFeatureError{Feature: feature, Reason: fmt.Sprintf(format, args...)}
}
