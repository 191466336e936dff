package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"pathway-gateway/core"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestIDMiddleware 沿用客户端传入的 X-Request-ID，没有则生成 UUID
// 同时写入 request context，供尝试记录关联
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(core.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// requestLoggerMiddleware 只记录 4xx/5xx，2xx 只在 debug 级别输出
func requestLoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"status":     statusCode,
			"latency":    latency,
			"client_ip":  c.ClientIP(),
			"request_id": requestIDFrom(c),
		}

		entry := log.WithFields(fields)
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Debugf("Request processed - %s %s (status: %d, latency: %v)",
				c.Request.Method, c.Request.URL.Path, statusCode, latency)
		}
	}
}

// corsMiddleware CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// client 包装限流器及其最后访问时间
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按 IP 限流，定期清理不活跃的 IP
type IPRateLimiter struct {
	clients map[string]*client
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		clients: make(map[string]*client),
		rate:    r,
		burst:   b,
		idle:    3 * time.Minute,
		stop:    make(chan struct{}),
	}
	go i.cleanupLoop(time.Minute)
	return i
}

// GetLimiter 获取或创建 IP 对应的限流器，并更新访问时间
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	c, exists := i.clients[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (i *IPRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			i.cleanup(time.Now())
		case <-i.stop:
			return
		}
	}
}

// cleanup 删除超过 idle 未活跃的 IP
func (i *IPRateLimiter) cleanup(now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for ip, c := range i.clients {
		if now.Sub(c.lastSeen) > i.idle {
			delete(i.clients, ip)
		}
	}
}

func (i *IPRateLimiter) Stop() {
	i.once.Do(func() { close(i.stop) })
}

// rateLimitMiddleware IP 限流中间件
func rateLimitMiddleware(limiter *IPRateLimiter, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !limiter.GetLimiter(clientIP).Allow() {
			log.Warnf("Rate limit exceeded for IP: %s", clientIP)
			respondError(c, http.StatusTooManyRequests, "rate_limit_error", "Too Many Requests")
			return
		}
		c.Next()
	}
}
