package form4

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"insidertrack/internal/models"
)

// ErrNoReportingOwner means no reporting owner in the filing carries a usable
// identity. The filing is still marked processed by the caller so malformed
// submissions do not cause retry storms.
var ErrNoReportingOwner = errors.New("form4: no resolvable reporting owner")

// ErrUnparsable wraps XML-level decode failures. Non-retryable.
var ErrUnparsable = errors.New("form4: unparsable document")

// IssuerHint supplies filing-level context the XML does not carry (or carries
// unreliably): the tracked ticker, the ledger accession number, the EDGAR
// filing date.
type IssuerHint struct {
	Ticker          string
	CompanyName     string
	AccessionNumber string
	FilingDate      time.Time
}

// Filing is the parsed result: owner identity plus zero or more trade drafts.
type Filing struct {
	IssuerTicker string
	IssuerName   string
	OwnerName    string
	OwnerKey     string
	Roles        []string
	Trades       []models.InsiderTrade
}

// --- XML shapes. Every leaf is optional; Form 4 filers omit freely. ---------

type valueElem struct {
	Value string `xml:"value"`
}

type ownershipDocument struct {
	XMLName         xml.Name         `xml:"ownershipDocument"`
	PeriodOfReport  string           `xml:"periodOfReport"`
	Issuer          issuerElem       `xml:"issuer"`
	ReportingOwners []reportingOwner `xml:"reportingOwner"`
	NonDerivative   nonDerivTable    `xml:"nonDerivativeTable"`
	Derivative      derivTable       `xml:"derivativeTable"`
}

type issuerElem struct {
	CIK    string `xml:"issuerCik"`
	Name   string `xml:"issuerName"`
	Symbol string `xml:"issuerTradingSymbol"`
}

type reportingOwner struct {
	ID struct {
		CIK  string `xml:"rptOwnerCik"`
		Name string `xml:"rptOwnerName"`
	} `xml:"reportingOwnerId"`
	Relationship struct {
		IsDirector        string `xml:"isDirector"`
		IsOfficer         string `xml:"isOfficer"`
		IsTenPercentOwner string `xml:"isTenPercentOwner"`
		IsOther           string `xml:"isOther"`
		OfficerTitle      string `xml:"officerTitle"`
	} `xml:"reportingOwnerRelationship"`
}

type nonDerivTable struct {
	Transactions []transaction `xml:"nonDerivativeTransaction"`
}

type derivTable struct {
	Transactions []transaction `xml:"derivativeTransaction"`
}

type transaction struct {
	SecurityTitle   valueElem `xml:"securityTitle"`
	TransactionDate valueElem `xml:"transactionDate"`
	Amounts         struct {
		Shares        valueElem `xml:"transactionShares"`
		PricePerShare valueElem `xml:"transactionPricePerShare"`
		AcquiredCode  valueElem `xml:"transactionAcquiredDisposedCode"`
	} `xml:"transactionAmounts"`
	Ownership struct {
		DirectOrIndirect valueElem `xml:"directOrIndirectOwnership"`
	} `xml:"ownershipNature"`
}

// Parse decodes one Form 4 document into trade drafts. It is a pure function:
// no I/O, no shared state. Transactions with no parsable date, share count or
// acquired/disposed code are skipped individually rather than failing the
// filing.
func Parse(raw []byte, hint IssuerHint) (*Filing, error) {
	var doc ownershipDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	owner, ok := resolveOwner(doc.ReportingOwners)
	if !ok {
		return nil, ErrNoReportingOwner
	}

	ticker := strings.ToUpper(strings.TrimSpace(doc.Issuer.Symbol))
	if ticker == "" {
		ticker = strings.ToUpper(strings.TrimSpace(hint.Ticker))
	}
	issuerName := strings.TrimSpace(doc.Issuer.Name)
	if issuerName == "" {
		issuerName = hint.CompanyName
	}

	roles := ownerRoles(owner)
	rolesJSON, _ := json.Marshal(roles)

	out := &Filing{
		IssuerTicker: ticker,
		IssuerName:   issuerName,
		OwnerName:    ownerName(owner),
		OwnerKey:     ownerKey(owner),
		Roles:        roles,
	}

	fallbackDate := parseDate(doc.PeriodOfReport)

	appendTrades := func(txs []transaction, derivative bool) {
		for _, tx := range txs {
			draft, ok := mapTransaction(tx, out, hint, fallbackDate, derivative)
			if !ok {
				continue
			}
			draft.Roles = datatypes.JSON(rolesJSON)
			out.Trades = append(out.Trades, draft)
		}
	}
	appendTrades(doc.NonDerivative.Transactions, false)
	appendTrades(doc.Derivative.Transactions, true)

	return out, nil
}

func mapTransaction(tx transaction, filing *Filing, hint IssuerHint, fallbackDate time.Time, derivative bool) (models.InsiderTrade, bool) {
	var draft models.InsiderTrade

	// The acquired/disposed code is authoritative for direction; free-text
	// transaction descriptions are inconsistent across filers.
	var txType string
	switch strings.ToUpper(strings.TrimSpace(tx.Amounts.AcquiredCode.Value)) {
	case "A":
		txType = models.TxTypeBuy
	case "D":
		txType = models.TxTypeSell
	default:
		return draft, false
	}

	shares, err := decimal.NewFromString(cleanNumber(tx.Amounts.Shares.Value))
	if err != nil || shares.IsZero() {
		return draft, false
	}

	date := parseDate(tx.TransactionDate.Value)
	if date.IsZero() {
		date = fallbackDate
	}
	if date.IsZero() {
		return draft, false
	}

	price := decimal.Zero
	if p, err := decimal.NewFromString(cleanNumber(tx.Amounts.PricePerShare.Value)); err == nil {
		price = p
	}

	var total *decimal.Decimal
	if price.IsPositive() {
		v := shares.Mul(price)
		total = &v
	}

	ownership := models.OwnershipDirect
	if strings.EqualFold(strings.TrimSpace(tx.Ownership.DirectOrIndirect.Value), "I") {
		ownership = models.OwnershipIndirect
	}

	filingDate := hint.FilingDate
	if filingDate.IsZero() {
		filingDate = date
	}

	draft = models.InsiderTrade{
		InsiderName:     filing.OwnerName,
		InsiderKey:      filing.OwnerKey,
		Ticker:          filing.IssuerTicker,
		CompanyName:     filing.IssuerName,
		TransactionDate: date,
		FilingDate:      filingDate,
		TransactionType: txType,
		Shares:          shares,
		PricePerShare:   price,
		TotalValue:      total,
		OwnershipType:   ownership,
		IsDerivative:    derivative,
		SecurityTitle:   strings.TrimSpace(tx.SecurityTitle.Value),
		AccessionNumber: hint.AccessionNumber,
	}
	return draft, true
}

func resolveOwner(owners []reportingOwner) (reportingOwner, bool) {
	for _, o := range owners {
		if strings.TrimSpace(o.ID.Name) != "" || strings.TrimSpace(o.ID.CIK) != "" {
			return o, true
		}
	}
	return reportingOwner{}, false
}

func ownerName(o reportingOwner) string {
	name := strings.TrimSpace(o.ID.Name)
	if name == "" {
		name = "CIK " + strings.TrimSpace(o.ID.CIK)
	}
	return name
}

// ownerKey prefers the owner CIK, the stable SEC identity; filer name
// spellings drift between submissions.
func ownerKey(o reportingOwner) string {
	if cik := strings.TrimLeft(strings.TrimSpace(o.ID.CIK), "0"); cik != "" {
		return "cik:" + cik
	}
	return "name:" + strings.ToLower(strings.Join(strings.Fields(o.ID.Name), " "))
}

func ownerRoles(o reportingOwner) []string {
	var roles []string
	rel := o.Relationship
	if xmlBool(rel.IsDirector) {
		roles = append(roles, "director")
	}
	if xmlBool(rel.IsOfficer) {
		roles = append(roles, "officer")
		if title := strings.TrimSpace(rel.OfficerTitle); title != "" {
			roles = append(roles, title)
		}
	}
	if xmlBool(rel.IsTenPercentOwner) {
		roles = append(roles, "ten_percent_owner")
	}
	if xmlBool(rel.IsOther) {
		roles = append(roles, "other")
	}
	return roles
}

func xmlBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true
	}
	return false
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return s
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02-07:00", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
