package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathway-gateway/core/failover"
)

func TestGeminiClient_GenerateContent(t *testing.T) {
	// 1. 模拟 Gemini 服务器
	var gotPath, gotKey string
	var gotBody GeminiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"candidates": [{"content": {"parts": [{"text": "thinking", "thought": true}, {"text": "Hello"}, {"text": " World"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 2, "totalTokenCount": 5}
		}`)
	}))
	defer ts.Close()

	// 2. 调用
	client := NewGeminiClient(ts.URL, ts.Client(), 5*time.Second)
	res, err := client.GenerateContent(context.Background(), "AIza-test", GenerateParams{
		Model:  "gemini-pro",
		Prompt: "Say hello",
	})

	// 3. 验证
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", gotPath)
	assert.Equal(t, "AIza-test", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "Say hello", gotBody.Contents[0].Parts[0].Text)
	assert.Nil(t, gotBody.GenerationConfig)

	assert.Equal(t, "Hello World", res.Text)
	assert.Equal(t, "STOP", res.FinishReason)
	assert.Equal(t, "gemini-pro", res.Model)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 5, res.Usage.TotalTokenCount)
}

func TestGeminiClient_DefaultModel(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer ts.Close()

	res, err := NewGeminiClient(ts.URL, nil, 0).GenerateContent(context.Background(), "k", GenerateParams{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/"+DefaultGeminiModel+":generateContent", gotPath)
	assert.Equal(t, "", res.Text)
}

func TestGeminiClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome failover.Outcome
		message string
	}{
		{
			name:    "rate limited",
			status:  429,
			body:    `{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`,
			outcome: failover.OutcomeRetryable,
			message: "Resource has been exhausted",
		},
		{
			name:    "overloaded",
			status:  503,
			body:    `{"error": {"code": 503, "message": "The model is overloaded", "status": "UNAVAILABLE"}}`,
			outcome: failover.OutcomeRetryable,
			message: "The model is overloaded",
		},
		{
			name:    "bad request",
			status:  400,
			body:    `{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`,
			outcome: failover.OutcomeTerminal,
			message: "API key not valid",
		},
		{
			name:    "non json body",
			status:  500,
			body:    `upstream exploded`,
			outcome: failover.OutcomeTerminal,
			message: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			_, err := NewGeminiClient(ts.URL, ts.Client(), time.Second).GenerateContent(context.Background(), "k", GenerateParams{Prompt: "p"})
			require.Error(t, err)

			var pe *ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.message, pe.Message)
			assert.Equal(t, tt.outcome, ClassifyGemini(err))
		})
	}
}

func TestGeminiClient_BlockedPrompt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
	}))
	defer ts.Close()

	_, err := NewGeminiClient(ts.URL, ts.Client(), time.Second).GenerateContent(context.Background(), "k", GenerateParams{Prompt: "p"})

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "SAFETY", pe.Reason)
	assert.Equal(t, failover.OutcomeTerminal, ClassifyGemini(err))
}

func TestBuildRequest_GenerationConfig(t *testing.T) {
	temp := 0.2
	req := BuildRequest(GenerateParams{
		Prompt:            "p",
		SystemInstruction: "be brief",
		Temperature:       &temp,
		MaxOutputTokens:   256,
		JSONOutput:        true,
	})

	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "be brief", req.SystemInstruction.Parts[0].Text)
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, 0.2, *req.GenerationConfig.Temperature)
	assert.Equal(t, 256, req.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
}
