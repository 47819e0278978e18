package stockwatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insidertrack/internal/client/fetch"
	"insidertrack/internal/congress"
	"insidertrack/internal/models"
)

const (
	SenateSourceTag = "senate_stock_watcher"
	HouseSourceTag  = "house_stock_watcher"
)

// Client reads the Senate/House Stock Watcher community datasets: one large
// JSON array of all disclosed transactions, republished daily. Best-effort
// free fallbacks behind Finnhub; unthrottled but filtered client-side.
type Client struct {
	Fetcher *fetch.Client
	URL     string
	Chamber string
	Tag     string
}

func NewSenateClient(fetcher *fetch.Client, url string) *Client {
	return &Client{Fetcher: fetcher, URL: url, Chamber: models.ChamberSenate, Tag: SenateSourceTag}
}

func NewHouseClient(fetcher *fetch.Client, url string) *Client {
	return &Client{Fetcher: fetcher, URL: url, Chamber: models.ChamberHouse, Tag: HouseSourceTag}
}

func (c *Client) Name() string { return c.Tag }

type watcherRow struct {
	TransactionDate string `json:"transaction_date"`
	DisclosureDate  string `json:"disclosure_date"`
	Ticker          string `json:"ticker"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	Senator         string `json:"senator"`
	Representative  string `json:"representative"`
}

func (c *Client) FetchTrades(ctx context.Context, ticker string, from, to time.Time) ([]models.CongressionalTrade, error) {
	if c == nil || c.Fetcher == nil || c.URL == "" {
		return nil, fmt.Errorf("stockwatcher client not configured")
	}

	raw, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", c.Tag, err)
	}

	var rows []watcherRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%s decode: %w", c.Tag, err)
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	var out []models.CongressionalTrade
	for _, row := range rows {
		rowTicker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if rowTicker == "" || rowTicker == "--" {
			continue
		}
		if ticker != "" && rowTicker != ticker {
			continue
		}
		txDate := parseWatcherDate(row.TransactionDate)
		if txDate.IsZero() {
			continue
		}
		if !from.IsZero() && txDate.Before(from) {
			continue
		}
		if !to.IsZero() && txDate.After(to) {
			continue
		}
		politician := strings.TrimSpace(row.Senator)
		if politician == "" {
			politician = strings.TrimSpace(row.Representative)
		}
		if politician == "" {
			continue
		}

		item := models.CongressionalTrade{
			Politician:      politician,
			Chamber:         c.Chamber,
			Ticker:          rowTicker,
			TransactionType: normalizeWatcherType(row.Type),
			TransactionDate: txDate,
			Source:          c.Tag,
		}
		if d := parseWatcherDate(row.DisclosureDate); !d.IsZero() {
			item.DisclosureDate = &d
		}
		item.AmountMin, item.AmountMax, item.AmountEstimate = congress.ParseAmountRange(row.Amount)
		out = append(out, item)
	}
	return out, nil
}

// normalizeWatcherType maps dataset types like "purchase", "sale_full",
// "sale_partial", "exchange" onto the canonical BUY/SELL pair.
func normalizeWatcherType(raw string) string {
	if strings.Contains(strings.ToLower(raw), "purchase") {
		return models.TxTypeBuy
	}
	return models.TxTypeSell
}

func parseWatcherDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
