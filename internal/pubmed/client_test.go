package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gladstone-institutes/bibliometrics/internal/cache"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

const sampleArticles = `<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2019//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_190101.dtd">
<PubmedArticleSet>
<PubmedArticle>
  <MedlineCitation Status="MEDLINE" Owner="NLM">
    <PMID Version="1">123</PMID>
    <Article PubModel="Print">
      <Journal>
        <JournalIssue CitedMedium="Print">
          <Volume>12</Volume>
        </JournalIssue>
      </Journal>
      <ArticleTitle>Statins and <i>in vivo</i> outcomes.</ArticleTitle>
      <Pagination><MedlinePgn>101-9</MedlinePgn></Pagination>
      <AuthorList CompleteYN="Y">
        <Author ValidYN="Y">
          <LastName>Smith</LastName>
          <ForeName>John A</ForeName>
          <Initials>JA</Initials>
          <AffiliationInfo><Affiliation>Gladstone Institutes, San Francisco</Affiliation></AffiliationInfo>
        </Author>
        <Author ValidYN="Y">
          <LastName>Doe</LastName>
          <Initials>J</Initials>
        </Author>
        <Author ValidYN="Y">
          <CollectiveName>Heart Study Group</CollectiveName>
        </Author>
      </AuthorList>
      <GrantList CompleteYN="Y">
        <Grant><Agency>NHLBI NIH HHS</Agency></Grant>
        <Grant><Agency>Wellcome Trust</Agency></Grant>
      </GrantList>
      <PublicationTypeList>
        <PublicationType UI="D016428">Journal Article</PublicationType>
        <PublicationType UI="D016454">Review</PublicationType>
      </PublicationTypeList>
    </Article>
    <MedlineJournalInfo>
      <MedlineTA>J Biol Chem</MedlineTA>
    </MedlineJournalInfo>
    <MeshHeadingList>
      <MeshHeading>
        <DescriptorName UI="D000818" MajorTopicYN="N">Animals</DescriptorName>
      </MeshHeading>
      <MeshHeading>
        <DescriptorName UI="D019161" MajorTopicYN="N">Hydroxymethylglutaryl-CoA Reductase Inhibitors</DescriptorName>
        <QualifierName UI="Q000494" MajorTopicYN="Y">pharmacology</QualifierName>
      </MeshHeading>
    </MeshHeadingList>
  </MedlineCitation>
  <PubmedData>
    <History>
      <PubMedPubDate PubStatus="received"><Year>2001</Year><Month>1</Month><Day>2</Day></PubMedPubDate>
      <PubMedPubDate PubStatus="pubmed"><Year>2001</Year><Month>3</Month><Day>15</Day></PubMedPubDate>
    </History>
    <ArticleIdList>
      <ArticleId IdType="doi">10.1000/xyz</ArticleId>
      <ArticleId IdType="pubmed">123</ArticleId>
    </ArticleIdList>
  </PubmedData>
</PubmedArticle>
<PubmedArticle>
  <MedlineCitation>
    <PMID Version="1">456</PMID>
    <Article>
      <ArticleTitle>A second article.</ArticleTitle>
    </Article>
  </MedlineCitation>
  <PubmedData>
    <History>
      <PubMedPubDate PubStatus="pubmed"><Year>1999</Year><Month>Feb</Month></PubMedPubDate>
    </History>
  </PubmedData>
</PubmedArticle>
</PubmedArticleSet>`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{WithBaseURL(srv.URL), WithRate(1000)}, opts...)
	return NewClient(opts...)
}

func TestParseArticles(t *testing.T) {
	recs, err := ParseArticles([]byte(sampleArticles))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	r := recs[0]
	assert.Equal(t, "123", r.PMID)
	assert.Equal(t, "Statins and in vivo outcomes.", r.Title)
	require.Len(t, r.Authors, 2)
	assert.Equal(t, "Smith JA", r.Authors[0].Name)
	assert.Equal(t, []int{1}, r.Authors[0].Institutions)
	assert.Equal(t, "Doe J", r.Authors[1].Name)
	assert.Empty(t, r.Authors[1].Institutions)
	assert.Equal(t, "Gladstone Institutes, San Francisco", r.Institutions[1].Address)
	assert.Equal(t, []string{"NHLBI NIH HHS", "Wellcome Trust"}, r.GrantAgencies)
	assert.Equal(t, []string{"Journal Article", "Review"}, r.Pubtypes)
	assert.Equal(t, [][]string{
		{"Animals"},
		{"Hydroxymethylglutaryl-CoA Reductase Inhibitors", "pharmacology"},
	}, r.MeshTerms)
	require.NotNil(t, r.Pubdate)
	assert.Equal(t, reference.NewPubdate(2001, 3, 15), *r.Pubdate)
	assert.Equal(t, "2001", r.Year)
	assert.Equal(t, "J Biol Chem", r.Journal)
	assert.Equal(t, "12", r.Volume)
	assert.Equal(t, "101", r.FirstPage)

	second := recs[1]
	assert.Equal(t, "456", second.PMID)
	require.NotNil(t, second.Pubdate)
	assert.Equal(t, reference.NewPubdate(1999, 0, 0), *second.Pubdate)
	assert.NotNil(t, second.Authors)
	assert.Empty(t, second.Authors)
}

func TestParseArticlesRejectsGarbage(t *testing.T) {
	_, err := ParseArticles([]byte("<PubmedArticleSet><PubmedArticle>"))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestFetchBatches(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		w.Write([]byte(sampleArticles))
	})

	pmids := make([]string, FetchBatch+1)
	for i := range pmids {
		pmids[i] = "1"
	}
	recs, err := c.Fetch(context.Background(), pmids)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, recs, 4)
}

func TestSearchAndCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		assert.Equal(t, `"Smith JA"[Author]`, q.Get("term"))
		if q.Get("retmax") == "0" {
			w.Write([]byte(`<eSearchResult><Count>42</Count><IdList></IdList></eSearchResult>`))
			return
		}
		w.Write([]byte(`<eSearchResult><Count>2</Count><IdList><Id>11</Id><Id>22</Id></IdList></eSearchResult>`))
	})

	ids, err := c.SearchByAuthor(context.Background(), "Smith JA")
	require.NoError(t, err)
	assert.Equal(t, []string{"11", "22"}, ids)

	n, err := c.CountByAuthor(context.Background(), "Smith JA")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestSearchErrorElement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`))
	})
	_, err := c.Search(context.Background(), "(((")
	assert.ErrorIs(t, err, ErrAPIError)
}

func TestTitleTerm(t *testing.T) {
	rec := reference.Record{Title: "A title", Authors: []reference.Author{{Name: "Smith JA"}}}
	assert.Equal(t, "(A title [Title]) AND (Smith JA [Author - First])", TitleTerm(rec))
	assert.Equal(t, "(A title[Title])", TitleTerm(reference.Record{Title: "A title"}))
}

func TestMatchByTitle(t *testing.T) {
	hits := map[string]string{
		"(Unique[Title])":    `<Id>7</Id>`,
		"(Ambiguous[Title])": `<Id>7</Id><Id>8</Id>`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids := hits[r.URL.Query().Get("term")]
		w.Write([]byte(`<eSearchResult><IdList>` + ids + `</IdList></eSearchResult>`))
	})

	pmid, err := c.MatchByTitle(context.Background(), reference.Record{Title: "Unique"})
	require.NoError(t, err)
	assert.Equal(t, "7", pmid)

	_, err = c.MatchByTitle(context.Background(), reference.Record{Title: "Ambiguous"})
	assert.True(t, IsNotFound(err))

	_, err = c.MatchByTitle(context.Background(), reference.Record{Title: "Missing"})
	assert.True(t, IsNotFound(err))

	_, err = c.MatchByTitle(context.Background(), reference.Record{})
	assert.True(t, IsNotFound(err))
}

func TestParseCitMatch(t *testing.T) {
	body := "proc natl acad sci u s a|1991|88|3248|mann bj|0|2014248\n" +
		"science|1987|235|182|palmenberg ac|1|NOT_FOUND\n" +
		"\n" +
		"nature|2000|1|1|x|2|AMBIGUOUS\n" +
		"cell|2001|2|3|y|3|999\n"
	assert.Equal(t, map[int]string{0: "2014248", 3: "999"}, parseCitMatch(body))
}

func TestCitMatch(t *testing.T) {
	var bdata string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ecitmatch.cgi", r.URL.Path)
		bdata = r.URL.Query().Get("bdata")
		w.Write([]byte("j biol chem|2001|12|101|smith ja|0|123\nnature|2000|1|1|doe j|1|NOT_FOUND\n"))
	})

	recs := []reference.Record{
		{Journal: "J Biol Chem", Year: "2001", Volume: "12", FirstPage: "101", Authors: []reference.Author{{Name: "Smith JA"}}},
		{Journal: "Nature", Year: "2000", Volume: "1", FirstPage: "1", Authors: []reference.Author{{Name: "Doe J"}}},
		{PMID: "5", Journal: "Cell", Year: "2001", Volume: "2", FirstPage: "3", Authors: []reference.Author{{Name: "Roe R"}}},
		{Title: "No journal"},
	}
	n, err := c.CitMatch(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "123", recs[0].PMID)
	assert.Empty(t, recs[1].PMID)
	assert.Equal(t, "5", recs[2].PMID)

	lines := strings.Split(bdata, "\r")
	require.Len(t, lines, 2)
	assert.Equal(t, "J Biol Chem|2001|12|101|Smith JA|0|", lines[0])
}

func TestCitedByAndReferences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/elink.fcgi", r.URL.Path)
		assert.Equal(t, "123", q.Get("id"))
		w.Write([]byte(`<eLinkResult><LinkSet>
			<LinkSetDb><DbTo>pubmed</DbTo><LinkName>pubmed_pubmed_citedin</LinkName><Link><Id>1</Id></Link><Link><Id>2</Id></Link></LinkSetDb>
			<LinkSetDb><DbTo>pubmed</DbTo><LinkName>pubmed_pubmed_refs</LinkName><Link><Id>3</Id></Link></LinkSetDb>
		</LinkSet></eLinkResult>`))
	})

	citing, err := c.CitedBy(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, citing)

	refs, err := c.References(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, refs)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, IsRateLimited},
		{http.StatusNotFound, IsNotFound},
		{http.StatusForbidden, func(err error) bool { return errors.Is(err, ErrAuthError) }},
		{http.StatusInternalServerError, func(err error) bool { return errors.Is(err, ErrAPIError) }},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.Search(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
}

func TestRequestParams(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = []string{q.Get("api_key"), q.Get("tool"), q.Get("email")}
		w.Write([]byte(`<eSearchResult><IdList></IdList></eSearchResult>`))
	}, WithAPIKey("secret"), WithIdentity("litnet-test", "me@example.org"))

	_, err := c.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"secret", "litnet-test", "me@example.org"}, got)
}

func TestResponsesAreCached(t *testing.T) {
	ch, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer ch.Close()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`<eSearchResult><IdList><Id>9</Id></IdList></eSearchResult>`))
	}, WithCache(ch))

	for i := 0; i < 3; i++ {
		ids, err := c.Search(context.Background(), "cached")
		require.NoError(t, err)
		assert.Equal(t, []string{"9"}, ids)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFailedResponsesAreNotCached(t *testing.T) {
	ch, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer ch.Close()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<eSearchResult><IdList><Id>9</Id></IdList></eSearchResult>`))
	}, WithCache(ch))

	_, err = c.Search(context.Background(), "retry")
	require.Error(t, err)
	ids, err := c.Search(context.Background(), "retry")
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, ids)
}

func TestAddPubmedData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/ecitmatch.cgi":
			w.Write([]byte("j biol chem|2001|12|101|smith ja|0|123\n"))
		case "/esearch.fcgi":
			if strings.Contains(q.Get("term"), "A second article.") {
				w.Write([]byte(`<eSearchResult><IdList><Id>456</Id></IdList></eSearchResult>`))
				return
			}
			w.Write([]byte(`<eSearchResult><IdList></IdList></eSearchResult>`))
		case "/efetch.fcgi":
			assert.Equal(t, "123,456", q.Get("id"))
			w.Write([]byte(sampleArticles))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	recs := []reference.Record{
		{Journal: "J Biol Chem", Year: "2001", Volume: "12", FirstPage: "101", Authors: []reference.Author{{Name: "Smith JA"}}},
		{Title: "A second article."},
		{Title: "Unknown to PubMed", WoSID: "WOS:1"},
	}
	require.NoError(t, c.AddPubmedData(context.Background(), recs))

	assert.Equal(t, "123", recs[0].PMID)
	assert.Equal(t, "Statins and in vivo outcomes.", recs[0].Title)
	assert.Len(t, recs[0].MeshTerms, 2)
	assert.Equal(t, "456", recs[1].PMID)
	require.NotNil(t, recs[1].Pubdate)
	assert.Empty(t, recs[2].PMID)
	assert.Equal(t, "Unknown to PubMed", recs[2].Title)
}

func TestBatches(t *testing.T) {
	assert.Nil(t, batches([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}, {3}}, batches([]int{1, 2, 3}, 2))
}
