package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FilingsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filings_processed_total",
			Help: "Total number of Form 4 filings claimed and processed",
		},
	)

	FilingClaimConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filing_claim_conflicts_total",
			Help: "Total number of ledger claims lost to another worker",
		},
	)

	TradesInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_inserted_total",
			Help: "Total number of insider trades persisted",
		},
	)

	ParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "form4_parse_failures_total",
			Help: "Total number of filings that failed to parse",
		},
	)

	CongressTradesInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "congress_trades_inserted_total",
			Help: "Total number of congressional trades persisted",
		},
	)

	AlertDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_deliveries_total",
			Help: "Alert delivery attempts by channel and status",
		},
		[]string{"channel", "status"},
	)

	CompanyIngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "company_ingest_duration_seconds",
			Help:    "Duration of one company's filing ingestion",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collectors with the default registry. Safe to call
// once from main.
func Register() {
	prometheus.MustRegister(
		FilingsProcessedTotal,
		FilingClaimConflictsTotal,
		TradesInsertedTotal,
		ParseFailuresTotal,
		CongressTradesInsertedTotal,
		AlertDeliveriesTotal,
		CompanyIngestDuration,
	)
}
