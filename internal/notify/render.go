package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"insidertrack/internal/models"
)

// Message is the channel-independent rendering of a triggered alert; each
// channel adapts it to its own wire shape.
type Message struct {
	Title string
	Body  string
	Trade models.InsiderTrade
}

func RenderMessage(trade models.InsiderTrade) Message {
	verb := "bought"
	if trade.TransactionType == models.TxTypeSell {
		verb = "sold"
	}

	title := fmt.Sprintf("Insider %s: %s", trade.TransactionType, trade.Ticker)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s shares of %s (%s) at $%s",
		trade.InsiderName, verb,
		trade.Shares.StringFixed(0),
		trade.CompanyName, trade.Ticker,
		trade.PricePerShare.StringFixed(2))
	if v := totalValue(trade); v != nil {
		fmt.Fprintf(&sb, " for ~$%s", v.StringFixed(0))
	}
	fmt.Fprintf(&sb, " on %s", trade.TransactionDate.Format("2006-01-02"))
	if trade.IsDerivative {
		sb.WriteString(" (derivative)")
	}

	return Message{Title: title, Body: sb.String(), Trade: trade}
}

func totalValue(trade models.InsiderTrade) *decimal.Decimal {
	if trade.TotalValue != nil {
		return trade.TotalValue
	}
	if trade.PricePerShare.IsPositive() {
		v := trade.Shares.Mul(trade.PricePerShare)
		return &v
	}
	return nil
}
