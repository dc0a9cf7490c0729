package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

type esearchResult struct {
	Count string   `xml:"Count"`
	IDs   []string `xml:"IdList>Id"`
	Error string   `xml:"ERROR"`
}

func (c *Client) esearch(ctx context.Context, term string, retmax int) (esearchResult, error) {
	var res esearchResult
	body, err := c.get(ctx, "esearch.fcgi", url.Values{
		"db":     {"pubmed"},
		"term":   {term},
		"retmax": {strconv.Itoa(retmax)},
	})
	if err != nil {
		return res, errors.Wrap(err, "esearch")
	}
	if err := xml.Unmarshal(body, &res); err != nil {
		return res, errors.Wrapf(ErrInvalidResponse, "esearch: %v", err)
	}
	if res.Error != "" {
		return res, &APIError{StatusCode: 200, Endpoint: "esearch.fcgi", Message: res.Error}
	}
	return res, nil
}

// Search returns the PMIDs matching a PubMed query term.
func (c *Client) Search(ctx context.Context, term string) ([]string, error) {
	res, err := c.esearch(ctx, term, MaxSearchResults)
	if err != nil {
		return nil, err
	}
	return res.IDs, nil
}

func authorTerm(name string) string {
	return fmt.Sprintf("%q[Author]", name)
}

// SearchByAuthor returns the PMIDs of articles written by name.
func (c *Client) SearchByAuthor(ctx context.Context, name string) ([]string, error) {
	return c.Search(ctx, authorTerm(name))
}

// CountByAuthor returns how many articles PubMed lists for name.
func (c *Client) CountByAuthor(ctx context.Context, name string) (int, error) {
	res, err := c.esearch(ctx, authorTerm(name), 0)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Count))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidResponse, "count %q", res.Count)
	}
	return n, nil
}

// TitleTerm builds the esearch term used to match a record by title,
// restricted to its first author when one is known.
func TitleTerm(rec reference.Record) string {
	if first := rec.FirstAuthor(); first != "" {
		return fmt.Sprintf("(%s [Title]) AND (%s [Author - First])", rec.Title, first)
	}
	return fmt.Sprintf("(%s[Title])", rec.Title)
}

// MatchByTitle returns the PMID of the single article matching the
// record's title and first author. Zero or several hits yield ErrNotFound.
func (c *Client) MatchByTitle(ctx context.Context, rec reference.Record) (string, error) {
	if rec.Title == "" {
		return "", errors.Wrap(ErrNotFound, "record has no title")
	}
	res, err := c.esearch(ctx, TitleTerm(rec), 2)
	if err != nil {
		return "", err
	}
	if len(res.IDs) != 1 {
		return "", errors.Wrapf(ErrNotFound, "%d matches for %q", len(res.IDs), rec.Title)
	}
	return res.IDs[0], nil
}
