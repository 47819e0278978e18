package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"

	"insidertrack/internal/models"
)

// WebhookChannel POSTs a triggered alert to the rule's user-supplied URL.
// The payload shape adapts to the detected provider: Slack and Discord get
// their native rich formats, anything else a generic JSON envelope. One
// attempt per trigger, bounded timeout, no automatic retry.
type WebhookChannel struct {
	HTTP *http.Client
}

func NewWebhookChannel(timeout time.Duration) *WebhookChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{HTTP: &http.Client{Timeout: timeout}}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error {
	if rule.WebhookURL == nil || strings.TrimSpace(*rule.WebhookURL) == "" {
		return fmt.Errorf("webhook: rule %d has no webhook url", rule.ID)
	}
	url := strings.TrimSpace(*rule.WebhookURL)
	msg := RenderMessage(trade)

	switch detectProvider(url) {
	case "slack":
		return c.sendSlack(ctx, url, msg)
	case "discord":
		return c.sendDiscord(ctx, url, msg)
	default:
		return c.sendGeneric(ctx, url, rule, msg)
	}
}

func detectProvider(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "hooks.slack.com"):
		return "slack"
	case strings.Contains(lower, "discord.com/api/webhooks"),
		strings.Contains(lower, "discordapp.com/api/webhooks"):
		return "discord"
	default:
		return "generic"
	}
}

func (c *WebhookChannel) sendSlack(ctx context.Context, url string, msg Message) error {
	color := "#2eb886"
	if msg.Trade.TransactionType == models.TxTypeSell {
		color = "#cc0000"
	}
	payload := &slack.WebhookMessage{
		Text: msg.Title,
		Attachments: []slack.Attachment{{
			Color: color,
			Title: msg.Title,
			Text:  msg.Body,
			Fields: []slack.AttachmentField{
				{Title: "Ticker", Value: msg.Trade.Ticker, Short: true},
				{Title: "Type", Value: msg.Trade.TransactionType, Short: true},
			},
			Footer: "insidertrack",
			Ts:     json.Number(fmt.Sprintf("%d", time.Now().Unix())),
		}},
	}
	return slack.PostWebhookCustomHTTPContext(ctx, url, c.HTTP, payload)
}

func (c *WebhookChannel) sendDiscord(ctx context.Context, url string, msg Message) error {
	color := 0x2eb886
	if msg.Trade.TransactionType == models.TxTypeSell {
		color = 0xcc0000
	}
	payload := discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       color,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Ticker", Value: msg.Trade.Ticker, Inline: true},
				{Name: "Type", Value: msg.Trade.TransactionType, Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "insidertrack"},
		}},
	}
	return c.postJSON(ctx, url, payload)
}

type genericEnvelope struct {
	Event  string             `json:"event"`
	RuleID uint64             `json:"rule_id"`
	Title  string             `json:"title"`
	Body   string             `json:"body"`
	Trade  genericTradeFields `json:"trade"`
}

type genericTradeFields struct {
	Insider         string `json:"insider"`
	Ticker          string `json:"ticker"`
	TransactionType string `json:"transaction_type"`
	Shares          string `json:"shares"`
	PricePerShare   string `json:"price_per_share"`
	TotalValue      string `json:"total_value,omitempty"`
	TransactionDate string `json:"transaction_date"`
}

func (c *WebhookChannel) sendGeneric(ctx context.Context, url string, rule models.AlertRule, msg Message) error {
	trade := msg.Trade
	env := genericEnvelope{
		Event:  "insider_trade_alert",
		RuleID: rule.ID,
		Title:  msg.Title,
		Body:   msg.Body,
		Trade: genericTradeFields{
			Insider:         trade.InsiderName,
			Ticker:          trade.Ticker,
			TransactionType: trade.TransactionType,
			Shares:          trade.Shares.String(),
			PricePerShare:   trade.PricePerShare.String(),
			TransactionDate: trade.TransactionDate.Format("2006-01-02"),
		},
	}
	if v := totalValue(trade); v != nil {
		env.Trade.TotalValue = v.String()
	}
	return c.postJSON(ctx, url, env)
}

func (c *WebhookChannel) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook post: status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
