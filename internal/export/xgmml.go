// Package export writes literature networks to files for external tools
// and reads them back.
package export

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// XGMMLNamespace is the default namespace of XGMML documents.
const XGMMLNamespace = "http://www.cs.rpi.edu/XGMML"

// ErrMalformed is returned when an input document cannot describe a graph.
var ErrMalformed = errors.New("malformed graph document")

type xgmmlGraph struct {
	XMLName  xml.Name    `xml:"http://www.cs.rpi.edu/XGMML graph"`
	Label    string      `xml:"label,attr"`
	Directed string      `xml:"directed,attr"`
	Nodes    []xgmmlNode `xml:"node"`
	Edges    []xgmmlEdge `xml:"edge"`
}

type xgmmlNode struct {
	ID       int            `xml:"id,attr"`
	Label    string         `xml:"label,attr"`
	Atts     []xgmmlAtt     `xml:"att"`
	Graphics *xgmmlGraphics `xml:"graphics"`
}

type xgmmlEdge struct {
	Source int        `xml:"source,attr"`
	Target int        `xml:"target,attr"`
	Atts   []xgmmlAtt `xml:"att"`
}

type xgmmlAtt struct {
	Name  string     `xml:"name,attr"`
	Value string     `xml:"value,attr,omitempty"`
	Type  string     `xml:"type,attr"`
	Items []xgmmlAtt `xml:"att"`
}

type xgmmlGraphics struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

// WriteXGMML encodes g as XGMML. Every attribute is validated before
// anything is written to w.
func WriteXGMML(w io.Writer, g *graph.Graph) error {
	doc := xgmmlGraph{Label: g.Name, Directed: "1"}

	for _, n := range g.Nodes() {
		atts, err := encodeAtts(n.Attributes())
		if err != nil {
			return errors.Wrapf(err, "node %d (%s)", n.Index, n.Label)
		}
		xn := xgmmlNode{ID: n.Index, Label: n.Label, Atts: atts}
		if n.Position != nil {
			xn.Graphics = &xgmmlGraphics{X: n.Position.X, Y: n.Position.Y}
		}
		doc.Nodes = append(doc.Nodes, xn)
	}
	for _, e := range g.Edges() {
		atts, err := encodeAtts(e.Attributes())
		if err != nil {
			return errors.Wrapf(err, "edge %d→%d", e.Source, e.Target)
		}
		doc.Edges = append(doc.Edges, xgmmlEdge{Source: e.Source, Target: e.Target, Atts: atts})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding xgmml")
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

func encodeAtts(attrs []graph.Attribute) ([]xgmmlAtt, error) {
	out := make([]xgmmlAtt, 0, len(attrs))
	for _, a := range attrs {
		if _, err := graph.ValueOf(a.Value); err != nil {
			return nil, errors.Wrapf(err, "attribute %q", a.Name)
		}
		att := xgmmlAtt{Name: a.Name, Type: string(a.Value.Type())}
		switch v := a.Value.(type) {
		case graph.String:
			att.Value = string(v)
		case graph.Integer:
			att.Value = strconv.FormatInt(int64(v), 10)
		case graph.Real:
			att.Value = strconv.FormatFloat(float64(v), 'g', -1, 64)
		case graph.StringList:
			for _, s := range v {
				att.Items = append(att.Items, xgmmlAtt{Name: a.Name, Value: s, Type: string(graph.TypeString)})
			}
		case graph.IntegerList:
			for _, i := range v {
				att.Items = append(att.Items, xgmmlAtt{Name: a.Name, Value: strconv.FormatInt(i, 10), Type: string(graph.TypeInteger)})
			}
		}
		out = append(out, att)
	}
	return out, nil
}

// ReadXGMML decodes a graph written by WriteXGMML. Node ids must run from
// zero without gaps. An empty list attribute reads back as a string list.
func ReadXGMML(r io.Reader) (*graph.Graph, error) {
	var doc xgmmlGraph
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding xgmml")
	}

	g := graph.New(doc.Label)
	for i, xn := range doc.Nodes {
		if xn.ID != i {
			return nil, errors.Wrapf(ErrMalformed, "node id %d at position %d", xn.ID, i)
		}
		idx := g.AddNode("", xn.Label)
		n, err := g.Node(idx)
		if err != nil {
			return nil, err
		}
		for _, att := range xn.Atts {
			v, err := decodeAtt(att)
			if err != nil {
				return nil, errors.Wrapf(err, "node %d", idx)
			}
			if err := n.ApplyAttribute(att.Name, v); err != nil {
				return nil, errors.Wrapf(err, "node %d", idx)
			}
		}
		if xn.Graphics != nil {
			n.Position = &graph.Position{X: xn.Graphics.X, Y: xn.Graphics.Y}
		}
	}

	for _, xe := range doc.Edges {
		id, err := g.AddEdge(xe.Source, xe.Target)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "edge %d→%d: %v", xe.Source, xe.Target, err)
		}
		e, err := g.Edge(id)
		if err != nil {
			return nil, err
		}
		for _, att := range xe.Atts {
			v, err := decodeAtt(att)
			if err != nil {
				return nil, errors.Wrapf(err, "edge %d→%d", xe.Source, xe.Target)
			}
			if err := e.ApplyAttribute(att.Name, v); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func decodeAtt(att xgmmlAtt) (graph.Value, error) {
	switch graph.ValueType(att.Type) {
	case graph.TypeString:
		return graph.String(att.Value), nil
	case graph.TypeInteger:
		i, err := strconv.ParseInt(att.Value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "attribute %q: %v", att.Name, err)
		}
		return graph.Integer(i), nil
	case graph.TypeReal:
		f, err := strconv.ParseFloat(att.Value, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "attribute %q: %v", att.Name, err)
		}
		return graph.Real(f), nil
	case graph.TypeList:
		return decodeList(att)
	default:
		return nil, errors.Wrapf(ErrMalformed, "attribute %q has type %q", att.Name, att.Type)
	}
}

func decodeList(att xgmmlAtt) (graph.Value, error) {
	if len(att.Items) == 0 {
		return graph.StringList{}, nil
	}
	switch graph.ValueType(att.Items[0].Type) {
	case graph.TypeString:
		out := make(graph.StringList, 0, len(att.Items))
		for _, item := range att.Items {
			if item.Type != string(graph.TypeString) {
				return nil, errors.Wrapf(ErrMalformed, "list %q mixes item types", att.Name)
			}
			out = append(out, item.Value)
		}
		return out, nil
	case graph.TypeInteger:
		out := make(graph.IntegerList, 0, len(att.Items))
		for _, item := range att.Items {
			if item.Type != string(graph.TypeInteger) {
				return nil, errors.Wrapf(ErrMalformed, "list %q mixes item types", att.Name)
			}
			i, err := strconv.ParseInt(item.Value, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "list %q: %v", att.Name, err)
			}
			out = append(out, i)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrMalformed, "list %q has item type %q", att.Name, att.Items[0].Type)
	}
}
