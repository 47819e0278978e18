package congress

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountRange turns STOCK Act range strings like "$1,001 - $15,000" into
// min/max/midpoint. Open-ended forms ("$1,000,001 +", "Over $50,000,000") and
// single values ("$15,000") are accepted. Anything unparsable yields three
// nils; malformed disclosures fail soft, never hard.
func ParseAmountRange(raw string) (min, max, estimate *decimal.Decimal) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, nil, nil
	}
	cleaned = strings.NewReplacer("–", "-", "—", "-").Replace(cleaned)

	openEnded := false
	lowered := strings.ToLower(cleaned)
	if strings.HasPrefix(lowered, "over ") {
		openEnded = true
		cleaned = lowered[len("over "):]
	}
	if strings.HasSuffix(cleaned, "+") {
		openEnded = true
		cleaned = strings.TrimSuffix(cleaned, "+")
	}

	parts := strings.SplitN(cleaned, "-", 2)
	lo := parseDollars(parts[0])
	if lo == nil {
		return nil, nil, nil
	}

	var hi *decimal.Decimal
	if len(parts) == 2 {
		hi = parseDollars(parts[1])
		if hi == nil {
			// "$1,001 - garbage": keep the floor, no midpoint.
			return lo, nil, lo
		}
	}

	switch {
	case hi != nil:
		mid := lo.Add(*hi).Div(decimal.NewFromInt(2))
		return lo, hi, &mid
	case openEnded:
		return lo, nil, lo
	default:
		// Single exact value.
		return lo, lo, lo
	}
}

func parseDollars(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
