package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cotiza/internal/audit/domain"
)

type auditLogsQuery struct {
	ObjectType string `form:"object_type"`
	ObjectID   string `form:"object_id"`
	ActorID    string `form:"actor_id"`
	Since      string `form:"since"`
	Until      string `form:"until"`
	Limit      int    `form:"limit"`
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	var query auditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := auditdomain.ListRequest{
		ObjectType: strings.TrimSpace(query.ObjectType),
		ObjectID:   strings.TrimSpace(query.ObjectID),
		Limit:      query.Limit,
	}

	if raw := strings.TrimSpace(query.ActorID); raw != "" {
		actorID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		filter.ActorID = &actorID
	}
	if raw := strings.TrimSpace(query.Since); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(query.Until); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		filter.Until = &until
	}

	events, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
