// Package clinicaltrials searches the ClinicalTrials.gov v2 studies API for
// trials and the PubMed articles they cite.
package clinicaltrials

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gladstone-institutes/bibliometrics/internal/cache"
	"github.com/gladstone-institutes/bibliometrics/internal/reference"
)

const (
	// BaseURL is the ClinicalTrials.gov v2 API base URL.
	BaseURL = "https://clinicaltrials.gov/api/v2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is the default request rate, in requests per second.
	RateLimit = 5.0

	// PageSize is the number of studies requested per page.
	PageSize = 100
)

// Trial is a clinical study and the PubMed articles it references.
type Trial struct {
	NCTID          string             `json:"nct_id"`
	Title          string             `json:"title"`
	PMIDs          []string           `json:"pmids,omitempty"`
	CompletionDate *reference.Pubdate `json:"completion_date,omitempty"`
}

// Records returns one record per referenced PMID.
func (t Trial) Records() []reference.Record {
	recs := make([]reference.Record, 0, len(t.PMIDs))
	for _, pmid := range t.PMIDs {
		recs = append(recs, reference.Record{PMID: pmid})
	}
	return recs
}

// Client is a rate-limited HTTP client for ClinicalTrials.gov.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	log        *zap.Logger
	baseURL    string
	rate       float64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithCache stores responses in ch.
func WithCache(ch *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = ch
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithRate overrides the requests-per-second limit.
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) {
		c.rate = perSecond
	}
}

// NewClient creates a new ClinicalTrials.gov client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
		baseURL:    BaseURL,
		rate:       RateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rate <= 0 {
		c.rate = RateLimit
	}
	c.limiter = rate.NewLimiter(rate.Limit(c.rate), 1)
	return c
}

type study struct {
	Protocol struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		Status struct {
			Completion struct {
				Date string `json:"date"`
			} `json:"completionDateStruct"`
		} `json:"statusModule"`
		References struct {
			References []struct {
				PMID string `json:"pmid"`
				Type string `json:"type"`
			} `json:"references"`
		} `json:"referencesModule"`
	} `json:"protocolSection"`
}

type studiesPage struct {
	Studies       []study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

func (s study) trial() Trial {
	p := s.Protocol
	t := Trial{
		NCTID: p.Identification.NCTID,
		Title: p.Identification.OfficialTitle,
	}
	if t.Title == "" {
		t.Title = p.Identification.BriefTitle
	}
	seen := make(map[string]bool)
	for _, ref := range p.References.References {
		pmid := strings.TrimSpace(ref.PMID)
		if pmid == "" || seen[pmid] {
			continue
		}
		seen[pmid] = true
		t.PMIDs = append(t.PMIDs, pmid)
	}
	if pd, ok := ParseDate(p.Status.Completion.Date); ok {
		t.CompletionDate = &pd
	}
	return t
}

// ParseDate parses the API's partial dates ("2019", "2019-05",
// "2019-05-31"), leaving unknown parts zero.
func ParseDate(s string) (reference.Pubdate, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		ymd[i] = n
	}
	if ymd[0] <= 0 {
		return 0, false
	}
	return reference.NewPubdate(ymd[0], ymd[1], ymd[2]), true
}

func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == 404:
		return errors.Wrapf(ErrNotFound, "status %d", resp.StatusCode)
	case resp.StatusCode == 429:
		return errors.Wrapf(ErrRateLimited, "status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.cache.Fetch(ctx, cache.Key("clinicaltrials", path, params.Encode()), func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.Wrap(err, "creating request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(ErrNetworkError, "%v", err)
		}
		defer resp.Body.Close()

		c.log.Debug("clinicaltrials request", zap.String("path", path), zap.Int("status", resp.StatusCode))

		if err := checkHTTPErrors(resp); err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(ErrNetworkError, "reading response: %v", err)
		}
		return body, nil
	})
}

// Search returns every study matching term, following page tokens until
// the result set is exhausted.
func (c *Client) Search(ctx context.Context, term string) ([]Trial, error) {
	var trials []Trial
	token := ""
	for {
		params := url.Values{
			"query.term": {term},
			"pageSize":   {strconv.Itoa(PageSize)},
			"fields":     {"NCTId,BriefTitle,OfficialTitle,CompletionDate,ReferencePMID,ReferenceType"},
		}
		if token != "" {
			params.Set("pageToken", token)
		}

		body, err := c.get(ctx, "/studies", params)
		if err != nil {
			return trials, errors.Wrapf(err, "searching %q", term)
		}
		var page studiesPage
		if err := json.Unmarshal(body, &page); err != nil {
			return trials, errors.Wrapf(ErrInvalidResponse, "studies: %v", err)
		}
		for _, s := range page.Studies {
			trials = append(trials, s.trial())
		}

		if page.NextPageToken == "" || page.NextPageToken == token {
			break
		}
		token = page.NextPageToken
	}

	c.log.Info("clinical trials found", zap.String("term", term), zap.Int("trials", len(trials)))
	return trials, nil
}

// Study returns a single study by NCT ID.
func (c *Client) Study(ctx context.Context, nctID string) (Trial, error) {
	body, err := c.get(ctx, "/studies/"+url.PathEscape(nctID), nil)
	if err != nil {
		return Trial{}, errors.Wrapf(err, "study %s", nctID)
	}
	var s study
	if err := json.Unmarshal(body, &s); err != nil {
		return Trial{}, errors.Wrapf(ErrInvalidResponse, "study %s: %v", nctID, err)
	}
	return s.trial(), nil
}
