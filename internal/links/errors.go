package links

import "fmt"

// UnknownLinkError reports a link hash with no registered link, or a
// link whose source schema is not the schema being compiled.
type UnknownLinkError struct {
	Hash    string
	Profile string
	Schema  string
}

func (e *UnknownLinkError) Error() string {
	switch {
	case e.Schema != "":
		return fmt.Sprintf("link %s in profile %q is not declared for schema %s", e.Hash, e.Profile, e.Schema)
	case e.Profile != "":
		return fmt.Sprintf("unknown link %s in profile %q", e.Hash, e.Profile)
	}
	return fmt.Sprintf("unknown link %s", e.Hash)
}
