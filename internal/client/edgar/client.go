package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"insidertrack/internal/client/fetch"
)

// ErrNoDocument means the filing carries no machine-readable Form 4 XML.
// Non-retryable: the caller records the filing as processed with zero trades
// so legacy/malformed submissions are not re-fetched forever.
var ErrNoDocument = errors.New("edgar: no machine-readable document for filing")

// FilingMeta identifies one Form 4 submission.
type FilingMeta struct {
	AccessionNumber string
	FilingDate      time.Time
	ReportDate      time.Time
	PrimaryDocument string
	DocumentURL     string
	IndexURL        string
}

type Client struct {
	Fetcher        *fetch.Client
	BaseURL        string
	SubmissionsURL string
}

func NewClient(fetcher *fetch.Client, baseURL, submissionsURL string) *Client {
	if baseURL == "" {
		baseURL = "https://www.sec.gov"
	}
	if submissionsURL == "" {
		submissionsURL = "https://data.sec.gov/submissions"
	}
	return &Client{
		Fetcher:        fetcher,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		SubmissionsURL: strings.TrimRight(submissionsURL, "/"),
	}
}

// submissionsDoc mirrors the column-oriented EDGAR submissions JSON: parallel
// arrays indexed by filing.
type submissionsDoc struct {
	CIK     string `json:"cik"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// ListRecentFilings returns up to max Form 4 filings for the CIK filed on or
// after since, newest first (EDGAR's native order).
func (c *Client) ListRecentFilings(ctx context.Context, cik string, since time.Time, max int) ([]FilingMeta, error) {
	if c == nil || c.Fetcher == nil {
		return nil, fmt.Errorf("edgar client is nil")
	}
	cik = normalizeCIK(cik)
	if cik == "" {
		return nil, fmt.Errorf("edgar: empty cik")
	}

	url := fmt.Sprintf("%s/CIK%s.json", c.SubmissionsURL, cik)
	raw, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("edgar submissions fetch: %w", err)
	}

	var doc submissionsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("edgar submissions decode: %w", err)
	}

	recent := doc.Filings.Recent
	out := make([]FilingMeta, 0, max)
	for i := range recent.AccessionNumber {
		if max > 0 && len(out) >= max {
			break
		}
		if i >= len(recent.Form) || recent.Form[i] != "4" {
			continue
		}
		filed := parseDate(index(recent.FilingDate, i))
		if filed.IsZero() || (!since.IsZero() && filed.Before(since)) {
			continue
		}
		accession := index(recent.AccessionNumber, i)
		if accession == "" {
			continue
		}
		meta := FilingMeta{
			AccessionNumber: accession,
			FilingDate:      filed,
			ReportDate:      parseDate(index(recent.ReportDate, i)),
			PrimaryDocument: index(recent.PrimaryDocument, i),
		}
		dir := fmt.Sprintf("%s/Archives/edgar/data/%s/%s",
			c.BaseURL, strings.TrimLeft(cik, "0"), strings.ReplaceAll(accession, "-", ""))
		meta.IndexURL = dir + "/"
		if meta.PrimaryDocument != "" {
			meta.DocumentURL = dir + "/" + meta.PrimaryDocument
		}
		out = append(out, meta)
	}
	return out, nil
}

// FetchFilingDocument returns the filing's Form 4 XML. When the primary
// document is missing or not XML it falls back to scanning the filing index
// page for an XML document link.
func (c *Client) FetchFilingDocument(ctx context.Context, meta FilingMeta) ([]byte, error) {
	if c == nil || c.Fetcher == nil {
		return nil, fmt.Errorf("edgar client is nil")
	}

	if meta.DocumentURL != "" && strings.HasSuffix(strings.ToLower(meta.DocumentURL), ".xml") {
		raw, err := c.Fetcher.Fetch(ctx, meta.DocumentURL)
		if err == nil {
			return raw, nil
		}
		var herr *fetch.HTTPError
		if !errors.As(err, &herr) || herr.Status != 404 {
			return nil, err
		}
		// Stale primary document name: fall through to the index page.
	}

	if meta.IndexURL == "" {
		return nil, ErrNoDocument
	}
	page, err := c.Fetcher.Fetch(ctx, meta.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("edgar index fetch: %w", err)
	}
	docName := findXMLDocument(page)
	if docName == "" {
		return nil, ErrNoDocument
	}
	return c.Fetcher.Fetch(ctx, meta.IndexURL+docName)
}

func normalizeCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if cik == "" {
		return ""
	}
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func index(arr []string, i int) string {
	if i < 0 || i >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[i])
}
