package core

import "errors"

var (
	// ErrStorage 缓存读写失败
	ErrStorage = errors.New("cache storage error")

	// ErrNoResult 上游正常返回但没有结果
	ErrNoResult = errors.New("no result found")

	ErrEmptyQuery  = errors.New("search query is required")
	ErrEmptyPrompt = errors.New("prompt is required")

	ErrEmptyRoadmapRequest = errors.New("language and level, or a custom prompt, are required")

	// ErrInvalidRoadmap 模型输出无法解析为学习路线
	ErrInvalidRoadmap = errors.New("model returned an invalid roadmap")
)
