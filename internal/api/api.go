// Package api exposes the audit service over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/site-audit/siteaudit/internal/audit"
	"github.com/site-audit/siteaudit/internal/report"
	"github.com/site-audit/siteaudit/internal/urlutil"
)

// auditRequest is the body of every audit endpoint.
type auditRequest struct {
	URL string `json:"url" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server binds the audit service to HTTP handlers.
type Server struct {
	svc *audit.Service
	log *logrus.Logger
}

func NewServer(svc *audit.Service, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{svc: svc, log: log}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.POST("/report", s.handleReport)
	r.POST("/report/export", s.handleReportExport)
	r.POST("/analyze_summary", s.handleSummary)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReport runs (or serves from cache) a full audit.
func (s *Server) handleReport(c *gin.Context) {
	url, ok := s.bindURL(c)
	if !ok {
		return
	}

	r, cached, err := s.svc.Report(c.Request.Context(), url)
	if err != nil {
		s.computeError(c, url, err)
		return
	}
	c.Header("X-Cache", cacheHeader(cached))
	c.JSON(http.StatusOK, r)
}

// handleReportExport returns the full audit as a spreadsheet.
func (s *Server) handleReportExport(c *gin.Context) {
	url, ok := s.bindURL(c)
	if !ok {
		return
	}

	r, cached, err := s.svc.Report(c.Request.Context(), url)
	if err != nil {
		s.computeError(c, url, err)
		return
	}

	c.Header("X-Cache", cacheHeader(cached))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "site-audit.xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := report.ExportXLSX(r, c.Writer); err != nil {
		s.log.WithError(err).WithField("url", url).Error("XLSX export failed")
	}
}

// handleSummary returns the per-area executive summary.
func (s *Server) handleSummary(c *gin.Context) {
	url, ok := s.bindURL(c)
	if !ok {
		return
	}

	res, err := s.svc.ExecutiveSummary(c.Request.Context(), url)
	if err != nil {
		s.computeError(c, url, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":     res.Report.URL,
		"summary": res.Summary,
		"refined": res.Refined,
		"scores": gin.H{
			"overall": res.Report.Scores.Overall,
			"status":  res.Report.Scores.Status,
		},
	})
}

// bindURL parses and validates the request body; replies 400 itself.
func (s *Server) bindURL(c *gin.Context) (string, bool) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "body must be JSON with a url field"})
		return "", false
	}
	url, err := urlutil.Validate(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", false
	}
	return url, true
}

func (s *Server) computeError(c *gin.Context, url string, err error) {
	s.log.WithError(err).WithField("url", url).Error("Audit failed")
	if errors.Is(err, audit.ErrUnreachable) {
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, errorResponse{Error: "audit failed: " + err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("Request handled")
	}
}

func cacheHeader(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}
