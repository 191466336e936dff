package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"pathway-gateway/core"
	"pathway-gateway/core/adapter"
	"pathway-gateway/core/failover"
	"pathway-gateway/models"
)

// VideoSearcher / ContentGenerator 处理器依赖的服务
type VideoSearcher interface {
	Search(ctx context.Context, query string) (core.VideoResult, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, p adapter.GenerateParams) (*adapter.GenerateResult, error)
}

// RoadmapGenerator 学习路线生成
type RoadmapGenerator interface {
	Generate(ctx context.Context, req core.RoadmapRequest) (*core.Roadmap, error)
}

// server 路由依赖
type server struct {
	videos       VideoSearcher
	content      ContentGenerator
	roadmaps     RoadmapGenerator
	pools        []*failover.KeyPool
	cacheBackend string
	gatherer     prometheus.Gatherer
	limiter      *IPRateLimiter // nil 表示不限流
	log          *logrus.Logger
}

// newEngine 组装 gin 引擎
func newEngine(s *server) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.RecoveryWithWriter(s.log.Writer()))
	engine.Use(requestIDMiddleware())
	engine.Use(corsMiddleware())

	// 健康检查和指标不记录访问日志，也不限流
	engine.GET("/health", handleHealth(s))
	if s.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.Use(requestLoggerMiddleware(s.log))
	if s.limiter != nil {
		api.Use(rateLimitMiddleware(s.limiter, s.log))
	}
	{
		api.GET("/youtube/search", handleVideoSearch(s))
		api.POST("/gemini/generate", handleGenerate(s))
		api.POST("/roadmap/generate", handleRoadmap(s))
	}
	return engine
}

// handleVideoSearch GET /api/youtube/search?q=
func handleVideoSearch(s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			respondError(c, http.StatusBadRequest, "invalid_request_error", "Search query is required.")
			return
		}

		res, err := s.videos.Search(c.Request.Context(), query)
		if err != nil {
			s.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.VideoSearchResponse{VideoID: res.VideoID, Cached: res.Cached})
	}
}

// handleGenerate POST /api/gemini/generate
func handleGenerate(s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
			return
		}

		res, err := s.content.Generate(c.Request.Context(), adapter.GenerateParams{
			Model:             req.Model,
			Prompt:            req.Prompt,
			SystemInstruction: req.SystemInstruction,
			Temperature:       req.Temperature,
			MaxOutputTokens:   req.MaxOutputTokens,
			JSONOutput:        req.JSON,
			ResponseSchema:    req.ResponseSchema,
		})
		if err != nil {
			s.respondServiceError(c, err)
			return
		}

		resp := models.GenerateResponse{
			Model:        res.Model,
			Text:         res.Text,
			FinishReason: res.FinishReason,
		}
		if res.Usage != nil {
			resp.TotalTokens = res.Usage.TotalTokenCount
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleRoadmap POST /api/roadmap/generate
func handleRoadmap(s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RoadmapRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
			return
		}

		roadmap, err := s.roadmaps.Generate(c.Request.Context(), core.RoadmapRequest{
			Language:     req.Language,
			Level:        req.Level,
			CustomPrompt: req.CustomPrompt,
		})
		if err != nil {
			s.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, roadmap)
	}
}

// handleHealth 处理健康检查
func handleHealth(s *server) gin.HandlerFunc {
	return func(c *gin.Context) {
		pools := make(map[string]int, len(s.pools))
		for _, p := range s.pools {
			pools[p.Name()] = p.Size()
		}
		c.JSON(http.StatusOK, models.NewHealthResponse(pools, s.cacheBackend))
	}
}

// respondServiceError 把服务层错误映射为 HTTP 状态码
func (s *server) respondServiceError(c *gin.Context, err error) {
	status, errType, msg := classifyServiceError(err)

	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"request_id": requestIDFrom(c),
		"attempts":   failover.AttemptCount(err),
		"status":     status,
	})
	if status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
	respondError(c, status, errType, msg)
}

func classifyServiceError(err error) (int, string, string) {
	switch {
	case errors.Is(err, core.ErrEmptyQuery), errors.Is(err, core.ErrEmptyPrompt), errors.Is(err, core.ErrEmptyRoadmapRequest):
		return http.StatusBadRequest, "invalid_request_error", err.Error()
	case errors.Is(err, core.ErrNoResult):
		return http.StatusNotFound, "not_found_error", "No video found."
	case errors.Is(err, failover.ErrNoKeys):
		return http.StatusServiceUnavailable, "configuration_error", "Server configuration error: no API keys configured."
	case errors.Is(err, failover.ErrPoolExhausted):
		return http.StatusServiceUnavailable, "upstream_unavailable", "All API keys are rate limited or unavailable. Please try again later."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout_error", "Request timed out."
	case errors.Is(err, context.Canceled):
		// 客户端已断开
		return 499, "canceled", "Request canceled."
	case errors.Is(err, failover.ErrTerminal):
		msg := "Upstream request failed."
		var pe *adapter.ProviderError
		if errors.As(err, &pe) && pe.Message != "" {
			msg = pe.Message
		}
		return http.StatusBadRequest, "upstream_error", msg
	case errors.Is(err, core.ErrInvalidRoadmap):
		return http.StatusBadGateway, "invalid_upstream_response", "Failed to generate roadmap. The AI may be busy, please try again."
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, "storage_error", "Cache storage error."
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error."
	}
}

func respondError(c *gin.Context, status int, errType, msg string) {
	resp := models.NewErrorResponse(errType, msg)
	resp.Error.RequestID = requestIDFrom(c)
	c.AbortWithStatusJSON(status, resp)
}
