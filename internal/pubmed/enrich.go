package pubmed

import (
	"context"

	"go.uber.org/zap"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

// AddPubmedData matches records without a PMID, first through ecitmatch
// and then by title search, and merges the full PubMed record into every
// record that has a PMID afterwards. Records PubMed does not know are left
// as they are.
func (c *Client) AddPubmedData(ctx context.Context, recs []reference.Record) error {
	citMatched, err := c.CitMatch(ctx, recs)
	if err != nil {
		return err
	}

	titleMatched := 0
	for i := range recs {
		if recs[i].PMID != "" || recs[i].Title == "" {
			continue
		}
		pmid, err := c.MatchByTitle(ctx, recs[i])
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		recs[i].PMID = pmid
		titleMatched++
	}

	var pmids []string
	byPMID := make(map[string][]int)
	for i, r := range recs {
		if r.PMID == "" {
			continue
		}
		if _, seen := byPMID[r.PMID]; !seen {
			pmids = append(pmids, r.PMID)
		}
		byPMID[r.PMID] = append(byPMID[r.PMID], i)
	}

	c.log.Info("matched references",
		zap.Int("records", len(recs)),
		zap.Int("citmatch", citMatched),
		zap.Int("title", titleMatched),
		zap.Int("with_pmid", len(pmids)))

	if len(pmids) == 0 {
		return nil
	}

	fetched, err := c.Fetch(ctx, pmids)
	if err != nil {
		return err
	}
	for _, f := range fetched {
		for _, i := range byPMID[f.PMID] {
			recs[i].Update(f)
		}
	}
	return nil
}
