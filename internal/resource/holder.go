package resource

import "sync/atomic"

// Holder holds the active Resource. Store swaps it atomically; a
// compilation that already loaded the previous resource finishes against
// it.
type Holder struct {
	current atomic.Pointer[Resource]
}

// NewHolder returns a Holder holding r, which may be nil.
func NewHolder(r *Resource) *Holder {
	h := &Holder{}
	if r != nil {
		h.current.Store(r)
	}
	return h
}

// Load returns the active resource, or nil.
func (h *Holder) Load() *Resource {
	return h.current.Load()
}

// Store makes r the active resource and returns the previous one.
func (h *Holder) Store(r *Resource) *Resource {
	return h.current.Swap(r)
}

// Compile compiles against the active resource.
func (h *Holder) Compile(items, features []string, opts Options) (*Compiled, error) {
	r := h.Load()
	if r == nil {
		return nil, ErrNoResource
	}
	return r.Compile(items, features, opts)
}
