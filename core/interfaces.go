package core

import (
	"context"

	"pathway-gateway/core/adapter"
)

// ResultCache 读穿透缓存 (写一次)
// Lookup 未命中返回 ("", false, nil)；只有存储故障才返回 error
// Store 对相同的 (query, value) 幂等，不同 value 时后写覆盖
type ResultCache interface {
	Lookup(ctx context.Context, query string) (string, bool, error)
	Store(ctx context.Context, query, value string) error
}

// VideoSearcher 单次视频搜索，返回 "" 表示没有结果
type VideoSearcher interface {
	SearchVideo(ctx context.Context, apiKey, query string) (string, error)
}

// ContentGenerator 单次内容生成
type ContentGenerator interface {
	GenerateContent(ctx context.Context, apiKey string, p adapter.GenerateParams) (*adapter.GenerateResult, error)
}

// SecretProvider 抽象密钥加解密
// 用于读取配置时自动解密 API Key
type SecretProvider interface {
	Decrypt(ciphertext string) (string, error)
	Encrypt(plaintext string) (string, error)
}
