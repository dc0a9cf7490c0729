package pubmed

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

var pmidRe = regexp.MustCompile(`^\d+$`)

// citMatchable reports whether rec lacks a PMID but has every field
// ecitmatch needs.
func citMatchable(rec reference.Record) bool {
	return rec.PMID == "" && rec.Journal != "" && rec.Year != "" &&
		rec.Volume != "" && rec.FirstPage != "" && len(rec.Authors) > 0
}

// citMatchLine formats one ecitmatch query line:
// journal|year|volume|first page|first author|key|
func citMatchLine(rec reference.Record, key string) string {
	return strings.Join([]string{rec.Journal, rec.Year, rec.Volume, rec.FirstPage, rec.FirstAuthor(), key, ""}, "|")
}

// CitMatch fills in the PMID of every record ecitmatch can match by
// journal, year, volume, first page and first author. It returns the
// number of records matched.
func (c *Client) CitMatch(ctx context.Context, recs []reference.Record) (int, error) {
	var idx []int
	for i, r := range recs {
		if citMatchable(r) {
			idx = append(idx, i)
		}
	}

	matched := 0
	for _, batch := range batches(idx, CitMatchBatch) {
		lines := make([]string, len(batch))
		for i, ri := range batch {
			lines[i] = citMatchLine(recs[ri], strconv.Itoa(i))
		}

		body, err := c.get(ctx, "ecitmatch.cgi", url.Values{
			"db":      {"pubmed"},
			"retmode": {"xml"},
			"bdata":   {strings.Join(lines, "\r")},
		})
		if err != nil {
			return matched, errors.Wrap(err, "ecitmatch")
		}

		for key, pmid := range parseCitMatch(string(body)) {
			if key < 0 || key >= len(batch) {
				continue
			}
			recs[batch[key]].PMID = pmid
			matched++
		}
	}
	return matched, nil
}

// parseCitMatch maps query keys to PMIDs. Lines whose last field is not a
// PMID (NOT_FOUND, AMBIGUOUS) are skipped.
func parseCitMatch(body string) map[int]string {
	out := make(map[int]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pieces := strings.Split(line, "|")
		if len(pieces) < 2 {
			continue
		}
		pmid := strings.TrimSpace(pieces[len(pieces)-1])
		key, err := strconv.Atoi(strings.TrimSpace(pieces[len(pieces)-2]))
		if err != nil || !pmidRe.MatchString(pmid) {
			continue
		}
		out[key] = pmid
	}
	return out
}
