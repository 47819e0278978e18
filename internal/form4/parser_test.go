package form4

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const form4Fixture = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2026-03-13</periodOfReport>
  <issuer>
    <issuerCik>0000320193</issuerCik>
    <issuerName>ACME Corp</issuerName>
    <issuerTradingSymbol>acme</issuerTradingSymbol>
  </issuer>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerCik>0001214156</rptOwnerCik>
      <rptOwnerName>Doe Jane</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>1</isDirector>
      <isOfficer>true</isOfficer>
      <officerTitle>Chief Financial Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-03-12</value></transactionDate>
      <transactionAmounts>
        <transactionShares><value>10,000</value></transactionShares>
        <transactionPricePerShare><value>50.25</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <ownershipNature>
        <directOrIndirectOwnership><value>D</value></directOrIndirectOwnership>
      </ownershipNature>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>bogus</value></transactionDate>
      <transactionAmounts>
        <transactionShares><value>500</value></transactionShares>
        <transactionAcquiredDisposedCode><value>D</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
      <ownershipNature>
        <directOrIndirectOwnership><value>I</value></directOrIndirectOwnership>
      </ownershipNature>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-03-12</value></transactionDate>
      <transactionAmounts>
        <transactionShares><value>100</value></transactionShares>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
  <derivativeTable>
    <derivativeTransaction>
      <securityTitle><value>Stock Option</value></securityTitle>
      <transactionDate><value>2026-03-12</value></transactionDate>
      <transactionAmounts>
        <transactionShares><value>2000</value></transactionShares>
        <transactionPricePerShare><value>0</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </derivativeTransaction>
  </derivativeTable>
</ownershipDocument>`

func testHint() IssuerHint {
	return IssuerHint{
		Ticker:          "ACME",
		CompanyName:     "ACME Corp",
		AccessionNumber: "0000320193-26-000040",
		FilingDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestParse_FullFiling(t *testing.T) {
	filing, err := Parse([]byte(form4Fixture), testHint())
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	if filing.IssuerTicker != "ACME" {
		t.Fatalf("ticker=%q", filing.IssuerTicker)
	}
	if filing.OwnerName != "Doe Jane" {
		t.Fatalf("owner=%q", filing.OwnerName)
	}
	if filing.OwnerKey != "cik:1214156" {
		t.Fatalf("ownerKey=%q", filing.OwnerKey)
	}
	wantRoles := []string{"director", "officer", "Chief Financial Officer"}
	if len(filing.Roles) != len(wantRoles) {
		t.Fatalf("roles=%v", filing.Roles)
	}
	for i, r := range wantRoles {
		if filing.Roles[i] != r {
			t.Fatalf("roles[%d]=%q want=%q", i, filing.Roles[i], r)
		}
	}

	// Row 3 has no acquired/disposed code and is skipped; the rest survive.
	if len(filing.Trades) != 3 {
		t.Fatalf("trades=%d want=3", len(filing.Trades))
	}

	buy := filing.Trades[0]
	if buy.TransactionType != "BUY" {
		t.Fatalf("type=%q", buy.TransactionType)
	}
	if !buy.Shares.Equal(dec("10000")) {
		t.Fatalf("shares=%s", buy.Shares)
	}
	if !buy.PricePerShare.Equal(dec("50.25")) {
		t.Fatalf("price=%s", buy.PricePerShare)
	}
	if buy.TotalValue == nil || !buy.TotalValue.Equal(dec("502500")) {
		t.Fatalf("total=%v", buy.TotalValue)
	}
	if buy.OwnershipType != "DIRECT" {
		t.Fatalf("ownership=%q", buy.OwnershipType)
	}
	if buy.IsDerivative {
		t.Fatalf("non-derivative row flagged derivative")
	}
	if buy.AccessionNumber != "0000320193-26-000040" {
		t.Fatalf("accession=%q", buy.AccessionNumber)
	}
	if !buy.FilingDate.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("filingDate=%v", buy.FilingDate)
	}

	// Row 2: unparsable transaction date falls back to the period of report.
	sell := filing.Trades[1]
	if sell.TransactionType != "SELL" {
		t.Fatalf("type=%q", sell.TransactionType)
	}
	if !sell.TransactionDate.Equal(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date=%v", sell.TransactionDate)
	}
	if sell.OwnershipType != "INDIRECT" {
		t.Fatalf("ownership=%q", sell.OwnershipType)
	}
	// No price filed: value stays nil for downstream estimation.
	if sell.TotalValue != nil {
		t.Fatalf("total=%v want nil", sell.TotalValue)
	}

	opt := filing.Trades[2]
	if !opt.IsDerivative {
		t.Fatalf("derivative row not flagged")
	}
	if opt.TotalValue != nil {
		t.Fatalf("zero-price derivative should carry nil total, got %v", opt.TotalValue)
	}
}

func TestParse_NoReportingOwner(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?>
<ownershipDocument>
  <issuer><issuerTradingSymbol>ACME</issuerTradingSymbol></issuer>
  <reportingOwner>
    <reportingOwnerId><rptOwnerCik>  </rptOwnerCik><rptOwnerName></rptOwnerName></reportingOwnerId>
  </reportingOwner>
</ownershipDocument>`)
	_, err := Parse(raw, testHint())
	if !errors.Is(err, ErrNoReportingOwner) {
		t.Fatalf("err=%v, want ErrNoReportingOwner", err)
	}
}

func TestParse_UnparsableXML(t *testing.T) {
	_, err := Parse([]byte("this is not xml <"), testHint())
	if !errors.Is(err, ErrUnparsable) {
		t.Fatalf("err=%v, want ErrUnparsable", err)
	}
}

func TestParse_TickerFallsBackToHint(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?>
<ownershipDocument>
  <issuer><issuerName>ACME Corp</issuerName></issuer>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Doe Jane</rptOwnerName></reportingOwnerId>
  </reportingOwner>
</ownershipDocument>`)
	filing, err := Parse(raw, testHint())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if filing.IssuerTicker != "ACME" {
		t.Fatalf("ticker=%q", filing.IssuerTicker)
	}
	if filing.OwnerKey != "name:doe jane" {
		t.Fatalf("ownerKey=%q", filing.OwnerKey)
	}
	if len(filing.Trades) != 0 {
		t.Fatalf("trades=%d want=0", len(filing.Trades))
	}
}

func TestOwnerKey_NameNormalization(t *testing.T) {
	a := ownerKey(reportingOwner{})
	if a != "name:" {
		t.Fatalf("empty owner key=%q", a)
	}
	var o reportingOwner
	o.ID.Name = "  DOE   Jane  "
	if got := ownerKey(o); got != "name:doe jane" {
		t.Fatalf("got=%q", got)
	}
}
