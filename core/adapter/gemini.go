package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	ProviderGemini       = "gemini"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash"
)

// GenerateParams 一次生成请求的参数
type GenerateParams struct {
	Model             string
	Prompt            string
	SystemInstruction string
	Temperature       *float64
	MaxOutputTokens   int
	JSONOutput        bool
	ResponseSchema    map[string]any // JSON Schema，非空时隐含 JSONOutput
}

// GenerateResult 生成结果
type GenerateResult struct {
	Model        string       `json:"model"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Usage        *GeminiUsage `json:"usage,omitempty"`
}

// GeminiClient Google Gemini generateContent 客户端
type GeminiClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewGeminiClient(baseURL string, client *http.Client, timeout time.Duration) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

// BuildRequest 把参数转换为 Gemini 请求体
func BuildRequest(p GenerateParams) GeminiRequest {
	req := GeminiRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: p.Prompt}}},
		},
	}
	if p.SystemInstruction != "" {
		req.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: p.SystemInstruction}}}
	}
	jsonOut := p.JSONOutput || len(p.ResponseSchema) > 0
	if p.Temperature != nil || p.MaxOutputTokens > 0 || jsonOut {
		cfg := &GeminiConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxOutputTokens,
		}
		if jsonOut {
			cfg.ResponseMimeType = "application/json"
		}
		if len(p.ResponseSchema) > 0 {
			cfg.ResponseSchema = SanitizeSchema(p.ResponseSchema)
		}
		req.GenerationConfig = cfg
	}
	return req
}

// GenerateContent 用给定 Key 调用一次 generateContent
func (c *GeminiClient) GenerateContent(ctx context.Context, apiKey string, p GenerateParams) (*GenerateResult, error) {
	ctx, cancel := attemptContext(ctx, c.timeout)
	defer cancel()

	model := p.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	payload, err := json.Marshal(BuildRequest(p))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := do(c.client, req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: status, Err: err}
	}

	if status != http.StatusOK {
		return nil, parseGeminiError(status, body)
	}

	var resp GeminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: status, Message: "invalid generateContent response", Err: err}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" && len(resp.Candidates) == 0 {
		// 内容审核拒绝，没有结构化状态码
		return nil, &ProviderError{
			Provider: ProviderGemini,
			Reason:   resp.PromptFeedback.BlockReason,
			Message:  "prompt blocked by safety filters",
		}
	}

	result := &GenerateResult{Model: model, Usage: resp.UsageMetadata}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			if part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
		result.Text = text.String()
		result.FinishReason = cand.FinishReason
	}
	return result, nil
}

func parseGeminiError(status int, body []byte) *ProviderError {
	pe := &ProviderError{Provider: ProviderGemini, StatusCode: status}

	var errResp GeminiErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		pe.Message = truncate(string(body), 200)
		return pe
	}

	pe.Message = errResp.Error.Message
	pe.Status = errResp.Error.Status
	return pe
}
