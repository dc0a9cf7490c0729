package graph

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Edge is a directed link from a referencing entity to a referenced one.
type Edge struct {
	Index  int
	Source int
	Target int

	// Count is the multiplicity of the relationship. Zero means the edge
	// does not track multiplicity and no count attribute is written.
	Count int

	Extra Attributes

	removed bool
}

// EdgeAttrs is merged onto an edge by AddUniqueEdge.
type EdgeAttrs struct {
	// Count is added to the edge's existing count.
	Count int
	// Extra attributes overwrite existing ones by key.
	Extra Attributes
}

// Attributes lists the edge's attributes: count first, then extras by name.
func (e *Edge) Attributes() []Attribute {
	var attrs []Attribute
	if e.Count > 0 {
		attrs = append(attrs, Attribute{AttrCount, Integer(e.Count)})
	}
	names := make([]string, 0, len(e.Extra))
	for name := range e.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attrs = append(attrs, Attribute{name, e.Extra[name]})
	}
	return attrs
}

// ApplyAttribute sets a single attribute from its encoded value.
func (e *Edge) ApplyAttribute(name string, v Value) error {
	if name == AttrCount {
		i, ok := v.(Integer)
		if !ok {
			return attrTypeError(name, v)
		}
		e.Count = int(i)
		return nil
	}
	if e.Extra == nil {
		e.Extra = make(Attributes)
	}
	e.Extra[name] = v
	return nil
}

func (e *Edge) merge(attrs EdgeAttrs) {
	e.Count += attrs.Count
	if len(attrs.Extra) == 0 {
		return
	}
	if e.Extra == nil {
		e.Extra = make(Attributes, len(attrs.Extra))
	}
	for k, v := range attrs.Extra {
		e.Extra[k] = v
	}
}

// ErrSelfEdge is returned when an edge would join a node to itself.
var ErrSelfEdge = errors.New("source and target cannot be the same")
