package models

import "time"

// GenerateRequest 内容生成请求
type GenerateRequest struct {
	Prompt            string         `json:"prompt" binding:"required"`
	Model             string         `json:"model,omitempty"`
	SystemInstruction string         `json:"system_instruction,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty" binding:"omitempty,gte=0,lte=2"`
	MaxOutputTokens   int            `json:"max_output_tokens,omitempty" binding:"omitempty,gte=1"`
	JSON              bool           `json:"json,omitempty"`
	ResponseSchema    map[string]any `json:"response_schema,omitempty"`
}

// RoadmapRequest 学习路线请求，customPrompt 优先于 language+level
type RoadmapRequest struct {
	Language     string `json:"language" binding:"max=64"`
	Level        string `json:"level" binding:"omitempty,oneof=Beginner Intermediate Advanced"`
	CustomPrompt string `json:"customPrompt" binding:"max=2000"`
}

// GenerateResponse 内容生成响应
type GenerateResponse struct {
	Model        string `json:"model"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TotalTokens  int    `json:"total_tokens,omitempty"`
}

// VideoSearchResponse 视频搜索响应
type VideoSearchResponse struct {
	VideoID string `json:"videoId"`
	Cached  bool   `json:"cached"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string         `json:"status"`
	Service      string         `json:"service"`
	KeyPools     map[string]int `json:"key_pools"`
	CacheBackend string         `json:"cache_backend"`
	Timestamp    int64          `json:"timestamp"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(errType, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Message: message, Type: errType}}
}

// NewHealthResponse 创建健康检查响应
func NewHealthResponse(pools map[string]int, cacheBackend string) HealthResponse {
	status := "healthy"
	for _, n := range pools {
		if n == 0 {
			status = "degraded"
		}
	}
	return HealthResponse{
		Status:       status,
		Service:      "pathway-gateway",
		KeyPools:     pools,
		CacheBackend: cacheBackend,
		Timestamp:    time.Now().Unix(),
	}
}
