package pubmed

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
	Data     pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID         string        `xml:"PMID"`
	Article      article       `xml:"Article"`
	MedlineTA    string        `xml:"MedlineJournalInfo>MedlineTA"`
	MeshHeadings []meshHeading `xml:"MeshHeadingList>MeshHeading"`
}

type article struct {
	Title      text        `xml:"ArticleTitle"`
	Volume     string      `xml:"Journal>JournalIssue>Volume"`
	Pagination string      `xml:"Pagination>MedlinePgn"`
	Authors    []author    `xml:"AuthorList>Author"`
	GrantLists []grantList `xml:"GrantList"`
	PubTypes   []string    `xml:"PublicationTypeList>PublicationType"`
}

type author struct {
	LastName        string   `xml:"LastName"`
	Initials        string   `xml:"Initials"`
	Affiliation     string   `xml:"Affiliation"`
	AffiliationInfo []string `xml:"AffiliationInfo>Affiliation"`
}

type grantList struct {
	Agencies []string `xml:"Grant>Agency"`
}

type meshHeading struct {
	Descriptor string   `xml:"DescriptorName"`
	Qualifiers []string `xml:"QualifierName"`
}

type pubmedData struct {
	History    []historyDate `xml:"History>PubMedPubDate"`
	ArticleIDs []articleID   `xml:"ArticleIdList>ArticleId"`
}

type historyDate struct {
	Status string `xml:"PubStatus,attr"`
	Year   string `xml:"Year"`
	Month  string `xml:"Month"`
	Day    string `xml:"Day"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// text collects all character data of an element, including text inside
// inline markup such as <i> in titles.
type text string

func (t *text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tk := tok.(type) {
		case xml.CharData:
			b.Write(tk)
		case xml.EndElement:
			if tk.Name == start.Name {
				*t = text(strings.TrimSpace(b.String()))
				return nil
			}
		}
	}
}

// ParseArticles converts an efetch PubmedArticleSet document to records.
func ParseArticles(data []byte) ([]reference.Record, error) {
	var set articleSet
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&set); err != nil {
		return nil, errors.Wrapf(ErrInvalidResponse, "efetch: %v", err)
	}

	recs := make([]reference.Record, 0, len(set.Articles))
	for _, a := range set.Articles {
		recs = append(recs, a.record())
	}
	return recs, nil
}

func (a pubmedArticle) record() reference.Record {
	var r reference.Record
	art := a.Citation.Article

	for _, id := range a.Data.ArticleIDs {
		if id.Type == "pubmed" {
			r.PMID = strings.TrimSpace(id.Value)
			break
		}
	}
	if r.PMID == "" {
		r.PMID = strings.TrimSpace(a.Citation.PMID)
	}

	r.Institutions = map[int]reference.Institution{}
	r.Authors = []reference.Author{}
	for _, au := range art.Authors {
		if au.LastName == "" || au.Initials == "" {
			continue
		}
		entry := reference.Author{Name: au.LastName + " " + au.Initials}
		address := au.Affiliation
		if address == "" && len(au.AffiliationInfo) > 0 {
			address = au.AffiliationInfo[0]
		}
		if address = strings.TrimSpace(address); address != "" {
			key := len(r.Institutions) + 1
			r.Institutions[key] = reference.Institution{Address: address}
			entry.Institutions = []int{key}
		}
		r.Authors = append(r.Authors, entry)
	}

	r.Title = string(art.Title)

	for _, h := range a.Data.History {
		if h.Status != "pubmed" {
			continue
		}
		if pd, ok := parseHistoryDate(h); ok {
			r.Pubdate = &pd
			r.Year = strconv.Itoa(pd.Year())
		}
		break
	}

	r.Journal = a.Citation.MedlineTA
	r.Volume = art.Volume
	if page, _, _ := strings.Cut(art.Pagination, "-"); page != "" {
		r.FirstPage = strings.TrimSpace(page)
	}

	r.GrantAgencies = []string{}
	if n := len(art.GrantLists); n > 0 {
		r.GrantAgencies = append(r.GrantAgencies, art.GrantLists[n-1].Agencies...)
	}
	r.Pubtypes = append([]string{}, art.PubTypes...)

	r.MeshTerms = [][]string{}
	for _, mh := range a.Citation.MeshHeadings {
		term := append([]string{mh.Descriptor}, mh.Qualifiers...)
		r.MeshTerms = append(r.MeshTerms, term)
	}
	return r
}

// parseHistoryDate packs a history date, leaving unknown month and day zero.
func parseHistoryDate(h historyDate) (reference.Pubdate, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(h.Year))
	if err != nil {
		return 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(h.Month))
	if err != nil {
		return reference.NewPubdate(year, 0, 0), true
	}
	day, err := strconv.Atoi(strings.TrimSpace(h.Day))
	if err != nil {
		day = 0
	}
	return reference.NewPubdate(year, month, day), true
}

// Fetch retrieves full records for pmids, FetchBatch at a time.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]reference.Record, error) {
	var out []reference.Record
	for _, batch := range batches(pmids, FetchBatch) {
		body, err := c.get(ctx, "efetch.fcgi", url.Values{
			"db":      {"pubmed"},
			"id":      {strings.Join(batch, ",")},
			"retmode": {"xml"},
		})
		if err != nil {
			return out, errors.Wrap(err, "efetch")
		}
		recs, err := ParseArticles(body)
		if err != nil {
			return out, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
