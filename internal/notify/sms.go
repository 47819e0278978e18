package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"insidertrack/internal/config"
	"insidertrack/internal/models"
)

// SMSChannel delivers via the Twilio REST API. Bodies are truncated to one
// segment-ish length; the in-app feed carries the full detail.
type SMSChannel struct {
	Config config.SMSConfig
	client *twilio.RestClient
}

func NewSMSChannel(cfg config.SMSConfig) *SMSChannel {
	c := &SMSChannel{Config: cfg}
	if cfg.Enabled {
		c.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
	}
	return c
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error {
	if !c.Config.Enabled || c.client == nil {
		return fmt.Errorf("sms: channel disabled")
	}
	if rule.Phone == nil || strings.TrimSpace(*rule.Phone) == "" {
		return fmt.Errorf("sms: rule %d has no destination number", rule.ID)
	}

	msg := RenderMessage(trade)
	body := msg.Title + "\n" + msg.Body
	if len(body) > 320 {
		body = body[:317] + "..."
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(strings.TrimSpace(*rule.Phone))
	params.SetFrom(c.Config.FromNumber)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	return nil
}
