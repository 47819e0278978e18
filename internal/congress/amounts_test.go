package congress

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmountRange(t *testing.T) {
	cases := []struct {
		in       string
		min      string
		max      string
		estimate string
	}{
		{"$1,001 - $15,000", "1001", "15000", "8000.5"},
		{"$1,001 – $15,000", "1001", "15000", "8000.5"}, // en dash
		{"$1,001 — $15,000", "1001", "15000", "8000.5"}, // em dash
		{"$15,001-$50,000", "15001", "50000", "32500.5"},
		{"$1,000,001 +", "1000001", "", "1000001"},
		{"$1,000,001+", "1000001", "", "1000001"},
		{"Over $50,000,000", "50000000", "", "50000000"},
		{"over $5,000,000", "5000000", "", "5000000"},
		{"$15,000", "15000", "15000", "15000"},
		{"$1,001 - garbage", "1001", "", "1001"},
	}

	for _, tc := range cases {
		min, max, est := ParseAmountRange(tc.in)
		if got := decStr(min); got != tc.min {
			t.Fatalf("%q: min=%q want=%q", tc.in, got, tc.min)
		}
		if got := decStr(max); got != tc.max {
			t.Fatalf("%q: max=%q want=%q", tc.in, got, tc.max)
		}
		if got := decStr(est); got != tc.estimate {
			t.Fatalf("%q: estimate=%q want=%q", tc.in, got, tc.estimate)
		}
	}
}

func TestParseAmountRange_Unparsable(t *testing.T) {
	for _, in := range []string{"", "   ", "unknown", "garbage - $15,000", "$-5"} {
		min, max, est := ParseAmountRange(in)
		if min != nil || max != nil || est != nil {
			t.Fatalf("%q: expected three nils, got (%v,%v,%v)", in, min, max, est)
		}
	}
}

func decStr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
