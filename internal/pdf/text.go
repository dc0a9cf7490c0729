// Package pdf extracts bibliography text from PDF documents such as FDA
// approval packages.
package pdf

import (
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
)

var referencesHeading = regexp.MustCompile(`(?i)^\s*(references|bibliography|literature cited)\s*:?\s*$`)

// Text extracts the plain text of the first maxPages pages of the PDF at
// path, one page per line block. maxPages <= 0 reads every page.
func Text(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return pages(r, maxPages), nil
}

// TextReader is Text for an already open document.
func TextReader(ra io.ReaderAt, size int64, maxPages int) (string, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", errors.Wrap(err, "reading PDF")
	}
	return pages(r, maxPages), nil
}

func pages(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var b strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable pages are skipped; the rest still parses.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// ReferenceLines returns the lines following the last references heading
// in text. Without a heading every non-blank line is returned.
func ReferenceLines(text string) []string {
	lines := strings.Split(text, "\n")
	start := 0
	for i, line := range lines {
		if referencesHeading.MatchString(line) {
			start = i + 1
		}
	}

	var out []string
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
