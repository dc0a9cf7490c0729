package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/graph"
)

// Format identifies a graph file encoding.
type Format string

const (
	FormatXGMML    Format = "xgmml"
	FormatSnapshot Format = "snapshot"
)

// ErrUnknownFormat is returned for paths whose extension maps to no format.
var ErrUnknownFormat = errors.New("unknown graph file format")

// FormatFor picks the encoding from the file extension: .xgmml for XGMML,
// .json.gz or .litnet for snapshots.
func FormatFor(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xgmml"), strings.HasSuffix(lower, ".xml"):
		return FormatXGMML, nil
	case strings.HasSuffix(lower, ".json.gz"), strings.HasSuffix(lower, ".litnet"):
		return FormatSnapshot, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", filepath.Base(path))
	}
}

// Save writes g to path in the format implied by its extension. Nothing is
// created when the graph fails validation.
func Save(path string, g *graph.Graph) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatXGMML:
		err = WriteXGMML(&buf, g)
	case FormatSnapshot:
		_, err = WriteSnapshot(&buf, g)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Load reads a graph from path in the format implied by its extension.
func Load(path string) (*graph.Graph, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	switch format {
	case FormatXGMML:
		return ReadXGMML(f)
	default:
		g, _, err := ReadSnapshot(f)
		return g, err
	}
}
