package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tanpawarit/portfolio-agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
)

const sessionHeader = "session-id"

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type selectModelRequest struct {
	ModelName string `json:"model_name"`
}

func (srv *HTTPServer) mapHandlers() {
	srv.gin.Use(gin.Recovery(), srv.requestLogger())

	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/metrics", srv.metrics)
	srv.gin.POST("/chat", srv.chat)
	srv.gin.POST("/model", srv.selectModel)
}

func (srv *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		metricsx.HTTPRequestTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
		srv.l.Info().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", code).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func (srv *HTTPServer) healthCheck(c *gin.Context) {
	unavailable := srv.tools.Unavailable()
	status := "healthy"
	if len(unavailable) > 0 {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"tools":             srv.tools.Names(),
		"unavailable_tools": unavailable,
	})
}

func (srv *HTTPServer) metrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	if err := metricsx.WritePrometheus(c.Writer); err != nil {
		srv.l.Error().Err(err).Msg("write metrics")
	}
}

func (srv *HTTPServer) chat(c *gin.Context) {
	sessionID, ok := sessionFromHeader(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "body must be a JSON object with a text field"})
		return
	}

	reply, err := srv.agent.HandleMessage(c.Request.Context(), sessionID, req.Text)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Response: reply})
}

func (srv *HTTPServer) selectModel(c *gin.Context) {
	sessionID, ok := sessionFromHeader(c)
	if !ok {
		return
	}

	var req selectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "body must be a JSON object with a model_name field"})
		return
	}

	if err := srv.agent.SelectModel(c.Request.Context(), sessionID, req.ModelName); err != nil {
		srv.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func sessionFromHeader(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader(sessionHeader))
	if raw == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session-id header is required"})
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session-id header must be a UUID"})
		return "", false
	}
	return id.String(), true
}

// writeError keeps internal detail such as tool names out of responses.
func (srv *HTTPServer) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidMessage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "text must not be empty"})
	case errors.Is(err, orchestrator.ErrInvalidSession):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "session-id header is required"})
	case errors.Is(err, contractx.ErrUnsupportedModel):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "model is not supported"})
	default:
		srv.l.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
