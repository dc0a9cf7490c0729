package pubmed

import (
	"context"
	"encoding/xml"
	"net/url"

	"github.com/cockroachdb/errors"
)

// Link names understood by elink for PubMed-to-PubMed citation links.
const (
	LinkCitedIn = "pubmed_pubmed_citedin"
	LinkRefs    = "pubmed_pubmed_refs"
)

type elinkResult struct {
	LinkSets []struct {
		DBs []struct {
			LinkName string   `xml:"LinkName"`
			IDs      []string `xml:"Link>Id"`
		} `xml:"LinkSetDb"`
	} `xml:"LinkSet"`
}

func (c *Client) elink(ctx context.Context, pmid, linkName string) ([]string, error) {
	body, err := c.get(ctx, "elink.fcgi", url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pubmed"},
		"id":       {pmid},
		"linkname": {linkName},
	})
	if err != nil {
		return nil, errors.Wrap(err, "elink")
	}

	var res elinkResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrapf(ErrInvalidResponse, "elink: %v", err)
	}

	var ids []string
	for _, ls := range res.LinkSets {
		for _, db := range ls.DBs {
			if db.LinkName == linkName {
				ids = append(ids, db.IDs...)
			}
		}
	}
	return ids, nil
}

// CitedBy returns the PMIDs of articles citing pmid.
func (c *Client) CitedBy(ctx context.Context, pmid string) ([]string, error) {
	return c.elink(ctx, pmid, LinkCitedIn)
}

// References returns the PMIDs of articles pmid cites.
func (c *Client) References(ctx context.Context, pmid string) ([]string, error) {
	return c.elink(ctx, pmid, LinkRefs)
}
