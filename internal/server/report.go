package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/cotiza/internal/report/domain"
)

type reportQuery struct {
	Preset string `form:"preset"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit"`
}

func (s *Server) reportRange(c *gin.Context) (reportdomain.Range, *reportQuery, bool) {
	var query reportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return reportdomain.Range{}, nil, false
	}

	preset := reportdomain.Preset(strings.ToLower(strings.TrimSpace(query.Preset)))
	if preset == "" {
		preset = reportdomain.Preset7d
	}

	var from, to time.Time
	if preset == reportdomain.PresetCustom {
		var err error
		if from, err = parseReportTime(query.From); err != nil {
			AbortWithError(c, reportdomain.ErrInvalidRange)
			return reportdomain.Range{}, nil, false
		}
		if to, err = parseReportTime(query.To); err != nil {
			AbortWithError(c, reportdomain.ErrInvalidRange)
			return reportdomain.Range{}, nil, false
		}
	}

	rng, err := reportdomain.ResolveRange(preset, from, to, s.clk.Now())
	if err != nil {
		AbortWithError(c, err)
		return reportdomain.Range{}, nil, false
	}
	return rng, &query, true
}

func parseReportTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) QuoteOverviewReport(c *gin.Context) {
	rng, _, ok := s.reportRange(c)
	if !ok {
		return
	}

	overview, err := s.reportSvc.QuoteOverview(c.Request.Context(), rng)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": overview})
}

func (s *Server) TopProductsReport(c *gin.Context) {
	rng, query, ok := s.reportRange(c)
	if !ok {
		return
	}

	top, err := s.reportSvc.TopProducts(c.Request.Context(), rng, query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": top, "range": rng})
}

func (s *Server) OrderStatsReport(c *gin.Context) {
	rng, _, ok := s.reportRange(c)
	if !ok {
		return
	}

	stats, err := s.reportSvc.OrderStats(c.Request.Context(), rng)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) LoginActivityReport(c *gin.Context) {
	rng, _, ok := s.reportRange(c)
	if !ok {
		return
	}

	activity, err := s.reportSvc.LoginActivity(c.Request.Context(), rng)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": activity})
}
