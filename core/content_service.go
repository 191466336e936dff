package core

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"pathway-gateway/core/adapter"
	"pathway-gateway/core/failover"
)

// ContentService Gemini 内容生成，每次调用随机打乱 Key 顺序
type ContentService struct {
	generator    ContentGenerator
	failover     *failover.Failover
	defaultModel string
	logger       *logrus.Logger
}

func NewContentService(generator ContentGenerator, fo *failover.Failover, defaultModel string, logger *logrus.Logger) *ContentService {
	if defaultModel == "" {
		defaultModel = adapter.DefaultGeminiModel
	}
	return &ContentService{
		generator:    generator,
		failover:     fo,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

func (s *ContentService) DefaultModel() string { return s.defaultModel }

// Generate 生成内容；model 为空时使用默认模型
func (s *ContentService) Generate(ctx context.Context, p adapter.GenerateParams) (*adapter.GenerateResult, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if p.Model == "" {
		p.Model = s.defaultModel
	}

	res, err := failover.Invoke(ctx, s.failover, func(ctx context.Context, key string) (*adapter.GenerateResult, error) {
		return s.generator.GenerateContent(ctx, key, p)
	})
	if err != nil {
		s.logger.WithError(err).WithField("model", p.Model).Error("Gemini generation failed")
		return nil, err
	}
	return res, nil
}
