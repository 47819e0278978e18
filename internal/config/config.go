package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Edgar    EdgarConfig    `mapstructure:"edgar"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Congress CongressConfig `mapstructure:"congress"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	FilingScan   string `mapstructure:"filing_scan"`
	CongressScan string `mapstructure:"congress_scan"`
}

// EdgarConfig covers SEC EDGAR access. UserAgent must identify the operator
// (name + contact email) per EDGAR's automated access policy.
type EdgarConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	SubmissionsURL string        `mapstructure:"submissions_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerMinute  int           `mapstructure:"rate_per_minute"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type IngestConfig struct {
	DaysBack          int           `mapstructure:"days_back"`
	MaxFilings        int           `mapstructure:"max_filings"`
	MaxCompanies      int           `mapstructure:"max_companies"`
	CooldownHours     int           `mapstructure:"cooldown_hours"`
	WorkerConcurrency int           `mapstructure:"worker_concurrency"`
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
}

type CongressConfig struct {
	FinnhubAPIKey    string        `mapstructure:"finnhub_api_key"`
	FinnhubBaseURL   string        `mapstructure:"finnhub_base_url"`
	SenateWatcherURL string        `mapstructure:"senate_watcher_url"`
	HouseWatcherURL  string        `mapstructure:"house_watcher_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RatePerMinute    int           `mapstructure:"rate_per_minute"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	DaysBack         int           `mapstructure:"days_back"`
}

type AlertsConfig struct {
	// MinTradeValue is the significance pre-filter: trades below this total
	// value never reach rule evaluation. Zero disables the filter.
	MinTradeValue   float64       `mapstructure:"min_trade_value"`
	CooldownMinutes int           `mapstructure:"cooldown_minutes"`
	WebhookTimeout  time.Duration `mapstructure:"webhook_timeout"`
}

type NotifyConfig struct {
	Email EmailConfig `mapstructure:"email"`
	SMS   SMSConfig   `mapstructure:"sms"`
	Push  PushConfig  `mapstructure:"push"`
}

type EmailConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SMTPServer string `mapstructure:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port"`
	SMTPUser   string `mapstructure:"smtp_user"`
	SMTPPass   string `mapstructure:"smtp_pass"`
	FromEmail  string `mapstructure:"from_email"`
}

type SMSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

type PushConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.filing_scan", "0 0 6,12,18 * * *")
	v.SetDefault("cron.congress_scan", "0 30 7 * * *")

	v.SetDefault("edgar.base_url", "https://www.sec.gov")
	v.SetDefault("edgar.submissions_url", "https://data.sec.gov/submissions")
	v.SetDefault("edgar.user_agent", "insidertrack/1.0 (ops@insidertrack.dev)")
	v.SetDefault("edgar.timeout", "45s")
	v.SetDefault("edgar.rate_per_minute", 600)
	v.SetDefault("edgar.max_retries", 3)

	v.SetDefault("ingest.days_back", 7)
	v.SetDefault("ingest.max_filings", 10)
	v.SetDefault("ingest.max_companies", 50)
	v.SetDefault("ingest.cooldown_hours", 6)
	v.SetDefault("ingest.worker_concurrency", 4)
	v.SetDefault("ingest.run_timeout", "30m")

	v.SetDefault("congress.finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("congress.senate_watcher_url", "https://senate-stock-watcher-data.s3-us-west-2.amazonaws.com/aggregate/all_transactions.json")
	v.SetDefault("congress.house_watcher_url", "https://house-stock-watcher-data.s3-us-west-2.amazonaws.com/data/all_transactions.json")
	v.SetDefault("congress.timeout", "30s")
	v.SetDefault("congress.rate_per_minute", 60)
	v.SetDefault("congress.cache_ttl", "15m")
	v.SetDefault("congress.days_back", 30)

	v.SetDefault("alerts.min_trade_value", 0)
	v.SetDefault("alerts.cooldown_minutes", 60)
	v.SetDefault("alerts.webhook_timeout", "10s")

	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.smtp_port", 587)
	v.SetDefault("notify.sms.enabled", false)
	v.SetDefault("notify.push.enabled", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
