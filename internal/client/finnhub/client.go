package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"insidertrack/internal/client/fetch"
	"insidertrack/internal/models"
)

// ErrNotConfigured means no API key is set. The provider chain logs it once
// and moves to the next provider; it is never a per-entity failure.
var ErrNotConfigured = errors.New("finnhub: api key not configured")

const SourceTag = "finnhub"

type Client struct {
	Fetcher *fetch.Client
	BaseURL string
	APIKey  string
}

func NewClient(fetcher *fetch.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	return &Client{
		Fetcher: fetcher,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}
}

func (c *Client) Name() string { return SourceTag }

type congressResponse struct {
	Data []struct {
		AmountFrom      json.Number `json:"amountFrom"`
		AmountTo        json.Number `json:"amountTo"`
		FilingDate      string      `json:"filingDate"`
		Name            string      `json:"name"`
		Position        string      `json:"position"`
		Symbol          string      `json:"symbol"`
		TransactionDate string      `json:"transactionDate"`
		TransactionType string      `json:"transactionType"`
	} `json:"data"`
	Symbol string `json:"symbol"`
}

func (c *Client) FetchTrades(ctx context.Context, ticker string, from, to time.Time) ([]models.CongressionalTrade, error) {
	if c == nil || c.Fetcher == nil {
		return nil, fmt.Errorf("finnhub client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	if ticker != "" {
		q.Set("symbol", strings.ToUpper(ticker))
	}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("token", c.APIKey)

	raw, err := c.Fetcher.Fetch(ctx, c.BaseURL+"/stock/congressional-trading?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("finnhub congressional fetch: %w", err)
	}

	var resp congressResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("finnhub congressional decode: %w", err)
	}

	out := make([]models.CongressionalTrade, 0, len(resp.Data))
	for _, row := range resp.Data {
		txDate := parseDate(row.TransactionDate)
		if txDate.IsZero() || strings.TrimSpace(row.Name) == "" {
			continue
		}
		item := models.CongressionalTrade{
			Politician:      strings.TrimSpace(row.Name),
			Chamber:         chamberFromPosition(row.Position),
			Ticker:          strings.ToUpper(strings.TrimSpace(row.Symbol)),
			TransactionType: normalizeTxType(row.TransactionType),
			TransactionDate: txDate,
			Source:          SourceTag,
		}
		if item.Ticker == "" {
			item.Ticker = strings.ToUpper(ticker)
		}
		if d := parseDate(row.FilingDate); !d.IsZero() {
			item.DisclosureDate = &d
		}
		item.AmountMin = numberToDecimal(row.AmountFrom)
		item.AmountMax = numberToDecimal(row.AmountTo)
		if item.AmountMin != nil && item.AmountMax != nil {
			mid := item.AmountMin.Add(*item.AmountMax).Div(decimal.NewFromInt(2))
			item.AmountEstimate = &mid
		} else if item.AmountMin != nil {
			item.AmountEstimate = item.AmountMin
		}
		out = append(out, item)
	}
	return out, nil
}

func chamberFromPosition(position string) string {
	if strings.Contains(strings.ToLower(position), "senat") {
		return models.ChamberSenate
	}
	return models.ChamberHouse
}

func normalizeTxType(raw string) string {
	if strings.Contains(strings.ToLower(raw), "purchase") {
		return models.TxTypeBuy
	}
	return models.TxTypeSell
}

func numberToDecimal(n json.Number) *decimal.Decimal {
	s := strings.TrimSpace(n.String())
	if s == "" || s == "0" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
