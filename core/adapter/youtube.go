package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	ProviderYouTube       = "youtube"
	DefaultYouTubeBaseURL = "https://www.googleapis.com"
)

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeClient YouTube Data API v3 搜索客户端
type YouTubeClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewYouTubeClient(baseURL string, client *http.Client, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &YouTubeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

// SearchVideo 用给定 Key 搜索一个视频，返回第一个结果的 videoId
// 搜索成功但没有结果时返回 ""，不是错误
func (c *YouTubeClient) SearchVideo(ctx context.Context, apiKey, query string) (string, error) {
	ctx, cancel := attemptContext(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/youtube/v3/search?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create youtube request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := do(c.client, req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderYouTube, StatusCode: status, Err: err}
	}

	if status != http.StatusOK {
		return "", parseYouTubeError(status, body)
	}

	var resp youtubeSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProviderError{Provider: ProviderYouTube, StatusCode: status, Message: "invalid search response", Err: err}
	}

	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			return item.ID.VideoID, nil
		}
	}
	return "", nil
}

func parseYouTubeError(status int, body []byte) *ProviderError {
	pe := &ProviderError{Provider: ProviderYouTube, StatusCode: status}

	var errResp youtubeErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		pe.Message = truncate(string(body), 200)
		return pe
	}

	pe.Message = errResp.Error.Message
	if len(errResp.Error.Errors) > 0 {
		pe.Reason = errResp.Error.Errors[0].Reason
	}
	return pe
}
