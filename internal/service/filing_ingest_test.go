package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insidertrack/internal/client/edgar"
	"insidertrack/internal/client/fetch"
	"insidertrack/internal/config"
	"insidertrack/internal/models"
)

const ingestForm4 = `<?xml version="1.0"?>
<ownershipDocument>
  <periodOfReport>2026-03-13</periodOfReport>
  <issuer>
    <issuerName>ACME Corp</issuerName>
    <issuerTradingSymbol>ACME</issuerTradingSymbol>
  </issuer>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerCik>0001214156</rptOwnerCik>
      <rptOwnerName>Doe Jane</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship><isDirector>1</isDirector></reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2026-03-12</value></transactionDate>
      <transactionAmounts>
        <transactionShares><value>10000</value></transactionShares>
        <transactionPricePerShare><value>50.25</value></transactionPricePerShare>
        <transactionAcquiredDisposedCode><value>A</value></transactionAcquiredDisposedCode>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

func ingestFixture(t *testing.T, docBody string, docStatus int) (*FilingIngestService, *stubRepo, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if docStatus != http.StatusOK {
			w.WriteHeader(docStatus)
			return
		}
		w.Write([]byte(docBody))
	}))

	repo := newStubRepo()
	svc := &FilingIngestService{
		Repo:   repo,
		Edgar:  edgar.NewClient(&fetch.Client{HTTP: srv.Client()}, srv.URL, srv.URL),
		Config: config.IngestConfig{DaysBack: 7, MaxFilings: 10},
	}
	return svc, repo, srv.Close
}

// scanFixture serves the EDGAR submissions JSON for CIK 320193 (one Form 4
// filed today) and answers every document fetch with docStatus/docBody.
func scanFixture(t *testing.T, docStatus int, docBody string) (*FilingIngestService, *stubRepo, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		today := time.Now().UTC().Format("2006-01-02")
		fmt.Fprintf(w, `{"cik":"320193","filings":{"recent":{`+
			`"accessionNumber":["0000320193-26-000040"],`+
			`"filingDate":["%s"],"reportDate":["%s"],"form":["4"],`+
			`"primaryDocument":["wk-form4.xml"]}}}`, today, today)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if docStatus != http.StatusOK {
			w.WriteHeader(docStatus)
			return
		}
		w.Write([]byte(docBody))
	})
	srv := httptest.NewServer(mux)

	repo := newStubRepo()
	svc := &FilingIngestService{
		Repo:   repo,
		Edgar:  edgar.NewClient(&fetch.Client{HTTP: srv.Client()}, srv.URL, srv.URL+"/submissions"),
		Config: config.IngestConfig{DaysBack: 7, MaxFilings: 10},
	}
	return svc, repo, srv.Close
}

func filingMeta(svc *FilingIngestService) edgar.FilingMeta {
	return edgar.FilingMeta{
		AccessionNumber: "0000320193-26-000040",
		FilingDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DocumentURL:     svc.Edgar.BaseURL + "/doc/form4.xml",
	}
}

func testCompany() models.Company {
	return models.Company{Ticker: "ACME", Name: "ACME Corp", CIK: cikPtr("320193"), Active: true}
}

func TestIngestFiling_ClaimsAndPersists(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, ingestForm4, http.StatusOK)
	defer closeSrv()

	meta := filingMeta(svc)

	trades, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !claimed {
		t.Fatalf("expected claim")
	}
	if len(trades) != 1 {
		t.Fatalf("trades=%d want=1", len(trades))
	}
	if trades[0].ID == 0 {
		t.Fatalf("persisted trade should carry an ID")
	}
	if trades[0].TransactionType != models.TxTypeBuy {
		t.Fatalf("type=%q", trades[0].TransactionType)
	}

	filing, ok := repo.filings[meta.AccessionNumber]
	if !ok {
		t.Fatalf("ledger row missing")
	}
	if filing.TradeCount != 1 {
		t.Fatalf("tradeCount=%d want=1", filing.TradeCount)
	}
	if filing.Ticker != "ACME" {
		t.Fatalf("ticker=%q", filing.Ticker)
	}
}

func TestIngestFiling_SecondAttemptLosesClaim(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, ingestForm4, http.StatusOK)
	defer closeSrv()

	meta := filingMeta(svc)

	if _, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta); err != nil || !claimed {
		t.Fatalf("first attempt claimed=%v err=%v", claimed, err)
	}
	trades, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if claimed {
		t.Fatalf("second attempt must lose the claim")
	}
	if len(trades) != 0 {
		t.Fatalf("trades=%d want=0", len(trades))
	}
	if len(repo.trades) != 1 {
		t.Fatalf("stored trades=%d want=1", len(repo.trades))
	}
}

func TestIngestFiling_ParseFailureStillClaims(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, "this is not xml <", http.StatusOK)
	defer closeSrv()

	meta := filingMeta(svc)

	trades, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !claimed {
		t.Fatalf("malformed filings must still be claimed")
	}
	if len(trades) != 0 || len(repo.trades) != 0 {
		t.Fatalf("malformed filing produced trades")
	}
	if filing := repo.filings[meta.AccessionNumber]; filing == nil || filing.TradeCount != 0 {
		t.Fatalf("ledger row=%+v want zero-trade claim", filing)
	}
}

func TestIngestFiling_TransientFetchErrorLeavesUnclaimed(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, "", http.StatusForbidden)
	defer closeSrv()

	meta := filingMeta(svc)

	_, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
	if err == nil {
		t.Fatalf("expected error")
	}
	if claimed {
		t.Fatalf("failed fetch must not claim")
	}
	if len(repo.filings) != 0 {
		t.Fatalf("ledger=%v want empty", repo.filings)
	}
}

func TestIngestFiling_ReloadErrorSurfaces(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, ingestForm4, http.StatusOK)
	defer closeSrv()

	repo.findErr = errors.New("read timeout")
	meta := filingMeta(svc)

	_, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
	if err == nil {
		t.Fatalf("re-read failure must not report a clean zero-trade success")
	}
	if !claimed {
		t.Fatalf("claim happened before the re-read and must be reported")
	}
	if len(repo.trades) != 1 {
		t.Fatalf("stored trades=%d want=1", len(repo.trades))
	}
	if filing := repo.filings[meta.AccessionNumber]; filing == nil {
		t.Fatalf("ledger row missing")
	}
}

func TestScanCompany_FilingFailureCountsFailed(t *testing.T) {
	svc, repo, closeSrv := scanFixture(t, http.StatusForbidden, "")
	defer closeSrv()

	res := svc.scanCompany(context.Background(), testCompany())
	if res.Failed != 1 {
		t.Fatalf("failed=%d want=1", res.Failed)
	}
	if res.Skipped != 0 {
		t.Fatalf("skipped=%d want=0, lost claims only", res.Skipped)
	}
	if len(repo.filings) != 0 {
		t.Fatalf("failed fetch must not claim")
	}
}

func TestScanAll_FilingFailureMarksCompanyFailed(t *testing.T) {
	svc, repo, closeSrv := scanFixture(t, http.StatusForbidden, "")
	defer closeSrv()

	repo.companies = []models.Company{testCompany()}

	summary, err := svc.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Fatalf("failed=%d succeeded=%d want 1/0", summary.Failed, summary.Succeeded)
	}
}

func TestIngestFiling_ConcurrentClaimersExactlyOneWins(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, ingestForm4, http.StatusOK)
	defer closeSrv()

	meta := filingMeta(svc)

	const workers = 8
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, claimed, err := svc.ingestFiling(context.Background(), testCompany(), meta)
			if err != nil {
				t.Errorf("err=%v", err)
			}
			wins <- claimed
		}()
	}
	won := 0
	for i := 0; i < workers; i++ {
		if <-wins {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("claims won=%d want=1", won)
	}
	if len(repo.trades) != 1 {
		t.Fatalf("stored trades=%d want=1", len(repo.trades))
	}
}

func TestScanAll_RecordsRun(t *testing.T) {
	svc, repo, closeSrv := ingestFixture(t, ingestForm4, http.StatusOK)
	defer closeSrv()

	// No companies: the run still starts, finishes and is queryable.
	summary, err := svc.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if summary.Kind != models.RunKindFilings {
		t.Fatalf("kind=%q", summary.Kind)
	}
	run, ok := repo.runs[summary.RunID]
	if !ok {
		t.Fatalf("run not recorded")
	}
	if run.FinishedAt == nil {
		t.Fatalf("run not finished")
	}
}
