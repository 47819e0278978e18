package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insidertrack/internal/repository"
	"insidertrack/internal/service"
)

// AdminHandler exposes the manual-trigger entry points and run summaries for
// the admin-facing application. Failures surface as counts and short
// messages, never stack traces.
type AdminHandler struct {
	Filings  *service.FilingIngestService
	Congress *service.CongressIngestService
	Repo     repository.Repository
	Logger   *zap.Logger
}

func (h *AdminHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/admin")
	group.POST("/scan", h.scanAll)
	group.POST("/scan/:ticker", h.scanOne)
	group.POST("/scan-congress", h.scanCongress)
	group.GET("/runs", h.listRuns)
}

func (h *AdminHandler) scanAll(c *gin.Context) {
	if h.Filings == nil {
		Error(c, http.StatusInternalServerError, "ingestion unavailable", nil)
		return
	}
	summary, err := h.Filings.ScanAll(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("manual scan failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "scan failed", nil)
		return
	}
	Ok(c, summary, nil)
}

func (h *AdminHandler) scanOne(c *gin.Context) {
	if h.Filings == nil {
		Error(c, http.StatusInternalServerError, "ingestion unavailable", nil)
		return
	}
	ticker := strings.TrimSpace(c.Param("ticker"))
	if ticker == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return
	}
	result, err := h.Filings.ScrapeOne(c.Request.Context(), ticker)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *AdminHandler) scanCongress(c *gin.Context) {
	if h.Congress == nil {
		Error(c, http.StatusInternalServerError, "ingestion unavailable", nil)
		return
	}
	summary, err := h.Congress.RunOnce(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("manual congress scan failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "scan failed", nil)
		return
	}
	Ok(c, summary, nil)
}

func (h *AdminHandler) listRuns(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	runs, err := h.Repo.ListIngestionRuns(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, "query failed", nil)
		return
	}
	Ok(c, runs, map[string]any{"count": len(runs)})
}
