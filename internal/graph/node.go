package graph

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Kind is the node type tag.
type Kind string

const (
	KindArticle       Kind = "article"
	KindAuthor        Kind = "author"
	KindInstitution   Kind = "institution"
	KindGrantAgency   Kind = "grantagency"
	KindMeshTerm      Kind = "meshterm"
	KindDrug          Kind = "drug"
	KindClinicalTrial Kind = "clinicaltrial"
	KindRoot          Kind = "root"
)

// ErrAttributeType is returned when a known attribute receives a value of
// the wrong type.
var ErrAttributeType = errors.New("attribute type mismatch")

// Position holds layout coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the literature network. Which fields are meaningful
// depends on Kind; unset optional fields are nil or empty and are omitted
// from every encoding.
type Node struct {
	Index int
	Kind  Kind
	Label string

	// Article identity and bibliographic data.
	PMID      string
	WoSID     string
	Title     string // also used by clinical trials
	Pubtypes  []string
	Citcount  *int
	Level     *int
	MeshTerms []string

	// Pubdate is YYYYMMDD. On author, institution and grant agency nodes it
	// is the earliest pubdate of any directly connected article.
	Pubdate *int

	Position *Position

	// Extra holds analysis attributes such as score and ct_count.
	Extra Attributes
}

// Attribute names with a fixed meaning.
const (
	AttrType      = "type"
	AttrLabel     = "label"
	AttrPMID      = "pmid"
	AttrWoSID     = "wosid"
	AttrTitle     = "title"
	AttrPubdate   = "pubdate"
	AttrPubtypes  = "pubtypes"
	AttrCitcount  = "citcount"
	AttrLevel     = "level"
	AttrMeshTerms = "meshterms"
	AttrCount     = "count"
)

// Attributes lists the node's set attributes in a stable order: the fixed
// schema first, then extra attributes sorted by name.
func (n *Node) Attributes() []Attribute {
	attrs := []Attribute{{AttrType, String(n.Kind)}}
	if n.Label != "" {
		attrs = append(attrs, Attribute{AttrLabel, String(n.Label)})
	}
	if n.PMID != "" {
		attrs = append(attrs, Attribute{AttrPMID, String(n.PMID)})
	}
	if n.WoSID != "" {
		attrs = append(attrs, Attribute{AttrWoSID, String(n.WoSID)})
	}
	if n.Title != "" {
		attrs = append(attrs, Attribute{AttrTitle, String(n.Title)})
	}
	if n.Pubdate != nil {
		attrs = append(attrs, Attribute{AttrPubdate, Integer(*n.Pubdate)})
	}
	if n.Pubtypes != nil {
		attrs = append(attrs, Attribute{AttrPubtypes, StringList(n.Pubtypes)})
	}
	if n.Citcount != nil {
		attrs = append(attrs, Attribute{AttrCitcount, Integer(*n.Citcount)})
	}
	if n.Level != nil {
		attrs = append(attrs, Attribute{AttrLevel, Integer(*n.Level)})
	}
	if n.MeshTerms != nil {
		attrs = append(attrs, Attribute{AttrMeshTerms, StringList(n.MeshTerms)})
	}

	names := make([]string, 0, len(n.Extra))
	for name := range n.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attrs = append(attrs, Attribute{name, n.Extra[name]})
	}
	return attrs
}

// ApplyAttribute sets a single attribute from its encoded value. Names
// outside the fixed schema are stored in Extra.
func (n *Node) ApplyAttribute(name string, v Value) error {
	switch name {
	case AttrType:
		s, ok := v.(String)
		if !ok {
			return attrTypeError(name, v)
		}
		n.Kind = Kind(s)
	case AttrLabel, AttrPMID, AttrWoSID, AttrTitle:
		s, ok := v.(String)
		if !ok {
			return attrTypeError(name, v)
		}
		switch name {
		case AttrLabel:
			n.Label = string(s)
		case AttrPMID:
			n.PMID = string(s)
		case AttrWoSID:
			n.WoSID = string(s)
		case AttrTitle:
			n.Title = string(s)
		}
	case AttrPubdate, AttrCitcount, AttrLevel:
		i, ok := v.(Integer)
		if !ok {
			return attrTypeError(name, v)
		}
		val := int(i)
		switch name {
		case AttrPubdate:
			n.Pubdate = &val
		case AttrCitcount:
			n.Citcount = &val
		case AttrLevel:
			n.Level = &val
		}
	case AttrPubtypes, AttrMeshTerms:
		l, ok := v.(StringList)
		if !ok {
			return attrTypeError(name, v)
		}
		list := append([]string{}, l...)
		if name == AttrPubtypes {
			n.Pubtypes = list
		} else {
			n.MeshTerms = list
		}
	default:
		if n.Extra == nil {
			n.Extra = make(Attributes)
		}
		n.Extra[name] = v
	}
	return nil
}

// SetAttr converts v and applies it under name. Values outside the
// serializable set are rejected with an error naming the node and attribute.
func (n *Node) SetAttr(name string, v any) error {
	val, err := ValueOf(v)
	if err != nil {
		return errors.Wrapf(err, "node %d (%s) attribute %q", n.Index, n.Label, name)
	}
	if err := n.ApplyAttribute(name, val); err != nil {
		return errors.Wrapf(err, "node %d (%s)", n.Index, n.Label)
	}
	return nil
}

// Attr returns the value of an extra attribute.
func (n *Node) Attr(name string) (Value, bool) {
	v, ok := n.Extra[name]
	return v, ok
}

func attrTypeError(name string, v Value) error {
	return errors.Wrapf(ErrAttributeType, "attribute %q cannot hold %T", name, v)
}
