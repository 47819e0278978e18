package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"insidertrack/internal/alert"
	"insidertrack/internal/client/edgar"
	"insidertrack/internal/client/fetch"
	"insidertrack/internal/client/finnhub"
	"insidertrack/internal/client/stockwatcher"
	"insidertrack/internal/config"
	"insidertrack/internal/congress"
	cronrunner "insidertrack/internal/cron"
	"insidertrack/internal/db"
	"insidertrack/internal/handler"
	"insidertrack/internal/logger"
	"insidertrack/internal/metrics"
	"insidertrack/internal/notify"
	gormrepository "insidertrack/internal/repository/gorm"
	"insidertrack/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("IT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("IT_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	metrics.Register()

	store := gormrepository.New(dbConn.Gorm)

	edgarFetcher := fetch.NewClient(
		&http.Client{Timeout: cfg.Edgar.Timeout},
		cfg.Edgar.RatePerMinute,
		cfg.Edgar.UserAgent,
		cfg.Edgar.MaxRetries,
		log,
	)
	edgarClient := edgar.NewClient(edgarFetcher, cfg.Edgar.BaseURL, cfg.Edgar.SubmissionsURL)

	congressFetcher := fetch.NewClient(
		&http.Client{Timeout: cfg.Congress.Timeout},
		cfg.Congress.RatePerMinute,
		cfg.Edgar.UserAgent,
		2,
		log,
	)
	congressSource := congress.NewSource([]congress.Provider{
		finnhub.NewClient(congressFetcher, cfg.Congress.FinnhubBaseURL, cfg.Congress.FinnhubAPIKey),
		stockwatcher.NewSenateClient(congressFetcher, cfg.Congress.SenateWatcherURL),
		stockwatcher.NewHouseClient(congressFetcher, cfg.Congress.HouseWatcherURL),
	}, cfg.Congress.CacheTTL, log)

	dispatcher := notify.NewDispatcher(store, log)
	webhookCh := notify.NewWebhookChannel(cfg.Alerts.WebhookTimeout)
	dispatcher.Register(webhookCh, "webhook", "slack", "discord")
	dispatcher.Register(notify.NewEmailChannel(cfg.Notify.Email))
	dispatcher.Register(notify.NewSMSChannel(cfg.Notify.SMS))
	dispatcher.Register(notify.NewPushChannel(cfg.Notify.Push, store, log))
	dispatcher.Register(notify.NewInAppChannel(store))

	alertPipeline := &service.AlertPipeline{
		Repo: store,
		Cooldown: &alert.Cooldown{
			Repo:   store,
			Window: time.Duration(cfg.Alerts.CooldownMinutes) * time.Minute,
		},
		Dispatcher: dispatcher,
		Config:     cfg.Alerts,
		Logger:     log,
	}

	filingSvc := &service.FilingIngestService{
		Repo:   store,
		Edgar:  edgarClient,
		Alerts: alertPipeline,
		Config: cfg.Ingest,
		Logger: log,
	}
	congressSvc := &service.CongressIngestService{
		Repo:   store,
		Source: congressSource,
		Config: cfg.Congress,
		Logger: log,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := cronrunner.New(log, rootCtx)
	if cfg.Cron.Enabled {
		if _, err := runner.Add(cfg.Cron.FilingScan, func(ctx context.Context) {
			runCtx, cancel := context.WithTimeout(ctx, cfg.Ingest.RunTimeout)
			defer cancel()
			if _, err := filingSvc.ScanAll(runCtx); err != nil {
				log.Error("scheduled filing scan failed", zap.Error(err))
			}
		}); err != nil {
			log.Fatal("invalid filing scan cron spec", zap.Error(err))
		}
		if _, err := runner.Add(cfg.Cron.CongressScan, func(ctx context.Context) {
			runCtx, cancel := context.WithTimeout(ctx, cfg.Ingest.RunTimeout)
			defer cancel()
			if _, err := congressSvc.RunOnce(runCtx); err != nil {
				log.Error("scheduled congress scan failed", zap.Error(err))
			}
		}); err != nil {
			log.Fatal("invalid congress scan cron spec", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		Filings:  filingSvc,
		Congress: congressSvc,
		Repo:     store,
		Logger:   log,
	}
	adminHandler.Register(engine)
	feedHandler := &handler.NotificationFeedHandler{Repo: store, Logger: log}
	feedHandler.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
