package engine

import "fmt"

// Index assigns every declared state a dense integer id. It is built once per
// computation and shared by every later stage.
type Index struct {
	names []string
	ids   map[string]int
}

// NewIndex builds the state table. The order of states is preserved.
func NewIndex(states []string) (*Index, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: state list is empty", ErrShape)
	}
	ids := make(map[string]int, len(states))
	names := make([]string, len(states))
	for i, s := range states {
		if s == "" {
			return nil, fmt.Errorf("%w: empty state name at position %d", ErrShape, i)
		}
		if _, dup := ids[s]; dup {
			return nil, fmt.Errorf("%w: duplicate state %q", ErrShape, s)
		}
		ids[s] = i
		names[i] = s
	}
	return &Index{names: names, ids: ids}, nil
}

// Len returns the number of states.
func (x *Index) Len() int { return len(x.names) }

// ID returns the id of a state name.
func (x *Index) ID(name string) (int, bool) {
	id, ok := x.ids[name]
	return id, ok
}

// Name returns the state name for an id.
func (x *Index) Name(id int) string { return x.names[id] }

// Names returns a copy of the ordered state list.
func (x *Index) Names() []string {
	out := make([]string, len(x.names))
	copy(out, x.names)
	return out
}
