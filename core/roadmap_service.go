package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"pathway-gateway/core/adapter"
)

// TextGenerator 带故障转移的内容生成 (ContentService)
type TextGenerator interface {
	Generate(ctx context.Context, p adapter.GenerateParams) (*adapter.GenerateResult, error)
}

// RoadmapRequest 按语言+水平生成，或使用自定义描述
type RoadmapRequest struct {
	Language     string
	Level        string
	CustomPrompt string
}

// RoadmapTopic 路线中的一个主题，YouTubeQuery 直接用于视频搜索
type RoadmapTopic struct {
	Topic        string `json:"topic"`
	Description  string `json:"description"`
	YouTubeQuery string `json:"youtube_query"`
}

// Roadmap 学习路线
type Roadmap struct {
	Title  string         `json:"title"`
	Topics []RoadmapTopic `json:"topics"`
}

const roadmapSystemInstruction = "You are an expert programming mentor who designs structured, practical learning pathways. " +
	"Each topic must build on the previous one. For every topic write a one or two sentence description " +
	"and a concise YouTube search query that would find a good tutorial video for it."

// roadmapSchema Gemini 结构化输出
var roadmapSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
		"topics": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":         map[string]any{"type": "string"},
					"description":   map[string]any{"type": "string"},
					"youtube_query": map[string]any{"type": "string"},
				},
				"required": []any{"topic", "description", "youtube_query"},
			},
		},
	},
	"required": []any{"title", "topics"},
}

// RoadmapService 学习路线生成
type RoadmapService struct {
	generator TextGenerator
	logger    *logrus.Logger
}

func NewRoadmapService(generator TextGenerator, logger *logrus.Logger) *RoadmapService {
	return &RoadmapService{generator: generator, logger: logger}
}

// Generate 构造提示词并解析模型返回的 JSON 路线
// 自定义描述优先于语言+水平
func (s *RoadmapService) Generate(ctx context.Context, req RoadmapRequest) (*Roadmap, error) {
	prompt, title, err := buildRoadmapPrompt(req)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, adapter.GenerateParams{
		Prompt:            prompt,
		SystemInstruction: roadmapSystemInstruction,
		ResponseSchema:    roadmapSchema,
	})
	if err != nil {
		return nil, err
	}

	roadmap, err := parseRoadmap(res.Text)
	if err != nil {
		s.logger.WithError(err).WithField("finish_reason", res.FinishReason).Warn("Gemini returned an unusable roadmap")
		return nil, err
	}
	if roadmap.Title == "" {
		roadmap.Title = title
	}
	s.logger.WithField("topics", len(roadmap.Topics)).Infof("🗺️ Generated roadmap %q", roadmap.Title)
	return roadmap, nil
}

// buildRoadmapPrompt 返回提示词和模型未给出标题时的默认标题
func buildRoadmapPrompt(req RoadmapRequest) (string, string, error) {
	if custom := strings.TrimSpace(req.CustomPrompt); custom != "" {
		prompt := "Create a step-by-step learning roadmap for the following request:\n\n" + custom +
			"\n\nReturn between 5 and 12 topics ordered from first to last."
		return prompt, "Custom Learning Roadmap", nil
	}

	language := strings.TrimSpace(req.Language)
	level := strings.TrimSpace(req.Level)
	if language == "" || level == "" {
		return "", "", ErrEmptyRoadmapRequest
	}
	prompt := fmt.Sprintf("Create a step-by-step learning roadmap for a %s level learner studying %s. "+
		"Cover what a %s learner needs next, and return between 5 and 12 topics ordered from first to last.",
		level, language, strings.ToLower(level))
	return prompt, fmt.Sprintf("%s %s Roadmap", level, language), nil
}

// parseRoadmap 容忍 ```json 代码块包裹；丢弃没有标题的主题
func parseRoadmap(text string) (*Roadmap, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var raw Roadmap
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoadmap, err)
	}

	roadmap := &Roadmap{Title: strings.TrimSpace(raw.Title)}
	for _, t := range raw.Topics {
		t.Topic = strings.TrimSpace(t.Topic)
		if t.Topic == "" {
			continue
		}
		t.Description = strings.TrimSpace(t.Description)
		t.YouTubeQuery = strings.TrimSpace(t.YouTubeQuery)
		if t.YouTubeQuery == "" {
			t.YouTubeQuery = t.Topic
		}
		roadmap.Topics = append(roadmap.Topics, t)
	}
	if len(roadmap.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", ErrInvalidRoadmap)
	}
	return roadmap, nil
}
