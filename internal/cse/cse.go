// Package cse parses bibliographies written in the Council of Science
// Editors citation-sequence style, as found in FDA approval packages:
//
//  1. Smith JA, Doe J. Statins and outcomes. J Biol Chem 2001;12:101-9.
package cse

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

var (
	journalRe  = regexp.MustCompile(`^(?P<journal>[\p{L}\p{N}_\s]+),?\s+(?P<year>\d{4}).*;\s*(?P<volume>\d+).*:\s*(?P<firstpage>\w+)`)
	listItemRe = regexp.MustCompile(`^\d+\.\s+`)
)

// SplitNumberedList joins the lines of a numbered list into one string per
// item. Lines that do not start a new item continue the previous one.
func SplitNumberedList(lines []string) []string {
	var items []string
	var buf string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if loc := listItemRe.FindStringIndex(line); loc != nil {
			if buf != "" {
				items = append(items, strings.TrimSpace(buf))
			}
			buf = line[loc[1]:]
			continue
		}
		buf += " " + line
	}
	if buf = strings.TrimSpace(buf); buf != "" {
		items = append(items, buf)
	}
	return items
}

// ParseRef parses one citation. The first period-separated piece lists the
// authors, the second is the title and the last holds the journal, year,
// volume and first page. Citations with fewer than two pieces are rejected.
func ParseRef(cit string) (reference.Record, error) {
	var pieces []string
	for _, p := range strings.Split(cit, ".") {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}
	if len(pieces) < 2 {
		return reference.Record{}, errors.Newf("citation %q has no title", cit)
	}

	rec := reference.Record{Title: pieces[1]}
	for _, name := range strings.Split(pieces[0], ",") {
		if name = strings.TrimSpace(name); name != "" {
			rec.Authors = append(rec.Authors, reference.Author{Name: name})
		}
	}

	if m := journalRe.FindStringSubmatch(pieces[len(pieces)-1]); m != nil {
		rec.Journal = strings.TrimSpace(m[journalRe.SubexpIndex("journal")])
		rec.Year = m[journalRe.SubexpIndex("year")]
		rec.Volume = m[journalRe.SubexpIndex("volume")]
		rec.FirstPage = m[journalRe.SubexpIndex("firstpage")]
	}
	return rec, nil
}

// ParseRefs parses a numbered list of citations. Items that cannot be
// parsed are returned in skipped.
func ParseRefs(lines []string) (recs []reference.Record, skipped []string) {
	for _, item := range SplitNumberedList(lines) {
		rec, err := ParseRef(item)
		if err != nil {
			skipped = append(skipped, item)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, skipped
}

// Document is a CSE reference file: the drug name on the first line,
// followed by the numbered bibliography.
type Document struct {
	Drug    string
	Refs    []reference.Record
	Skipped []string
}

// ReadDocument reads a CSE reference file.
func ReadDocument(r io.Reader) (*Document, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, errors.New("reference file has no drug name on its first line")
	}
	doc := &Document{Drug: strings.TrimSpace(lines[0])}
	doc.Refs, doc.Skipped = ParseRefs(lines[1:])
	return doc, nil
}

// ReadLines returns the non-blank lines of r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading references")
	}
	return lines, nil
}
