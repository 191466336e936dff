package adapter

import (
	"errors"
	"fmt"
	"strings"

	"pathway-gateway/core/failover"
)

// ProviderError 上游返回的错误
// StatusCode 为 0 表示没有结构化状态码 (网络错误、被拦截的内容等)
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string // 上游的状态字符串，如 RESOURCE_EXHAUSTED
	Reason     string // 机器可读原因，如 quotaExceeded
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " [%d]", e.StatusCode)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " (%s)", e.Reason)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// youtubeQuotaReasons 403 时这些原因表示配额问题，可以换 Key
var youtubeQuotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// ClassifyYouTube YouTube Data API 错误分类
// 429、503、以及带配额原因的 403 可重试，其余都不可重试
func ClassifyYouTube(err error) failover.Outcome {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return failover.OutcomeTerminal
	}
	if pe.Reason == "quotaExceeded" {
		return failover.OutcomeRetryable
	}
	switch pe.StatusCode {
	case 429, 503:
		return failover.OutcomeRetryable
	case 403:
		if youtubeQuotaReasons[pe.Reason] {
			return failover.OutcomeRetryable
		}
	}
	return failover.OutcomeTerminal
}

// ClassifyGemini Gemini 错误分类
// 有状态码时只认 429/503；没有状态码时退化为在错误文本中查找 "429"/"503"
func ClassifyGemini(err error) failover.Outcome {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		if pe.StatusCode == 429 || pe.StatusCode == 503 {
			return failover.OutcomeRetryable
		}
		return failover.OutcomeTerminal
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "503") {
		return failover.OutcomeRetryable
	}
	return failover.OutcomeTerminal
}
