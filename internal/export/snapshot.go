package export

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// SnapshotFormat is the version written into every snapshot.
const SnapshotFormat = 1

// SnapshotInfo describes a snapshot independent of its graph.
type SnapshotInfo struct {
	Format  int       `json:"format"`
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`
}

type snapshot struct {
	SnapshotInfo
	Name  string         `json:"name"`
	Nodes []snapshotNode `json:"nodes"`
	Edges []snapshotEdge `json:"edges"`
}

type snapshotNode struct {
	Attrs    []snapshotAttr  `json:"attrs"`
	Position *graph.Position `json:"position,omitempty"`
}

type snapshotEdge struct {
	Source int            `json:"source"`
	Target int            `json:"target"`
	Attrs  []snapshotAttr `json:"attrs,omitempty"`
}

// snapshotAttr tags each value with its concrete kind so lists of either
// element type survive the round trip even when empty.
type snapshotAttr struct {
	Name  string          `json:"name"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

const (
	kindString      = "string"
	kindInteger     = "integer"
	kindReal        = "real"
	kindStringList  = "strings"
	kindIntegerList = "integers"
)

// WriteSnapshot writes g as gzip-compressed JSON stamped with a fresh run
// id. Attributes are validated before anything is written to w.
func WriteSnapshot(w io.Writer, g *graph.Graph) (SnapshotInfo, error) {
	info := SnapshotInfo{
		Format:  SnapshotFormat,
		RunID:   uuid.NewString(),
		Created: time.Now().UTC(),
	}
	snap := snapshot{SnapshotInfo: info, Name: g.Name}

	for _, n := range g.Nodes() {
		attrs, err := encodeSnapshotAttrs(n.Attributes())
		if err != nil {
			return info, errors.Wrapf(err, "node %d (%s)", n.Index, n.Label)
		}
		snap.Nodes = append(snap.Nodes, snapshotNode{Attrs: attrs, Position: n.Position})
	}
	for _, e := range g.Edges() {
		attrs, err := encodeSnapshotAttrs(e.Attributes())
		if err != nil {
			return info, errors.Wrapf(err, "edge %d→%d", e.Source, e.Target)
		}
		snap.Edges = append(snap.Edges, snapshotEdge{Source: e.Source, Target: e.Target, Attrs: attrs})
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return info, err
	}
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		return info, errors.Wrap(err, "encoding snapshot")
	}
	if err := zw.Close(); err != nil {
		return info, errors.Wrap(err, "compressing snapshot")
	}

	_, err = w.Write(buf.Bytes())
	return info, err
}

func encodeSnapshotAttrs(attrs []graph.Attribute) ([]snapshotAttr, error) {
	out := make([]snapshotAttr, 0, len(attrs))
	for _, a := range attrs {
		var kind string
		switch a.Value.(type) {
		case graph.String:
			kind = kindString
		case graph.Integer:
			kind = kindInteger
		case graph.Real:
			kind = kindReal
		case graph.StringList:
			kind = kindStringList
		case graph.IntegerList:
			kind = kindIntegerList
		default:
			return nil, errors.Wrapf(graph.ErrUnserializable, "attribute %q has type %T", a.Name, a.Value)
		}
		raw, err := json.Marshal(a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", a.Name)
		}
		out = append(out, snapshotAttr{Name: a.Name, Kind: kind, Value: raw})
	}
	return out, nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*graph.Graph, SnapshotInfo, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "opening snapshot")
	}
	defer zr.Close()

	var snap snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, SnapshotInfo{}, errors.Wrap(err, "decoding snapshot")
	}
	if snap.Format != SnapshotFormat {
		return nil, snap.SnapshotInfo, errors.Wrapf(ErrMalformed, "snapshot format %d", snap.Format)
	}

	g := graph.New(snap.Name)
	for _, sn := range snap.Nodes {
		idx := g.AddNode("", "")
		n, err := g.Node(idx)
		if err != nil {
			return nil, snap.SnapshotInfo, err
		}
		for _, sa := range sn.Attrs {
			v, err := decodeSnapshotAttr(sa)
			if err != nil {
				return nil, snap.SnapshotInfo, errors.Wrapf(err, "node %d", idx)
			}
			if err := n.ApplyAttribute(sa.Name, v); err != nil {
				return nil, snap.SnapshotInfo, errors.Wrapf(err, "node %d", idx)
			}
		}
		n.Position = sn.Position
	}
	for _, se := range snap.Edges {
		id, err := g.AddEdge(se.Source, se.Target)
		if err != nil {
			return nil, snap.SnapshotInfo, errors.Wrapf(ErrMalformed, "edge %d→%d: %v", se.Source, se.Target, err)
		}
		e, err := g.Edge(id)
		if err != nil {
			return nil, snap.SnapshotInfo, err
		}
		for _, sa := range se.Attrs {
			v, err := decodeSnapshotAttr(sa)
			if err != nil {
				return nil, snap.SnapshotInfo, errors.Wrapf(err, "edge %d→%d", se.Source, se.Target)
			}
			if err := e.ApplyAttribute(sa.Name, v); err != nil {
				return nil, snap.SnapshotInfo, err
			}
		}
	}
	return g, snap.SnapshotInfo, nil
}

func decodeSnapshotAttr(sa snapshotAttr) (graph.Value, error) {
	var (
		v   graph.Value
		err error
	)
	switch sa.Kind {
	case kindString:
		var s graph.String
		err = json.Unmarshal(sa.Value, &s)
		v = s
	case kindInteger:
		var i graph.Integer
		err = json.Unmarshal(sa.Value, &i)
		v = i
	case kindReal:
		var f graph.Real
		err = json.Unmarshal(sa.Value, &f)
		v = f
	case kindStringList:
		l := graph.StringList{}
		err = json.Unmarshal(sa.Value, &l)
		v = l
	case kindIntegerList:
		l := graph.IntegerList{}
		err = json.Unmarshal(sa.Value, &l)
		v = l
	default:
		return nil, errors.Wrapf(ErrMalformed, "attribute %q has kind %q", sa.Name, sa.Kind)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "attribute %q: %v", sa.Name, err)
	}
	return v, nil
}
