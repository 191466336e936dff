package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pathway-gateway/core/adapter"
	"pathway-gateway/core/failover"
)

const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Settings 进程启动时读取一次的配置
type Settings struct {
	Port int

	DBPath        string
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeminiModel     string
	GeminiBaseURL   string
	YouTubeBaseURL  string
	UpstreamTimeout time.Duration
	YouTubeStrategy string
	GeminiStrategy  string

	// KeyEncryptionSecret 非空时，环境变量中的 Key 是 AES-GCM 密文
	KeyEncryptionSecret string

	LogLevel     string
	LogFile      string
	LogMaxSizeMB int

	RateLimitRPS   float64
	RateLimitBurst int

	AttemptLogKeep int
}

// LoadSettings 从 lookup (通常是 os.LookupEnv) 读取配置
func LoadSettings(lookup LookupFunc) (*Settings, error) {
	r := settingsReader{lookup: lookup}

	s := &Settings{
		Port:                r.getInt("PORT", 5001),
		DBPath:              r.getStr("DB_PATH", "gateway.db"),
		CacheBackend:        strings.ToLower(r.getStr("CACHE_BACKEND", CacheBackendSQLite)),
		RedisAddr:           r.getStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       r.getStr("REDIS_PASSWORD", ""),
		RedisDB:             r.getInt("REDIS_DB", 0),
		GeminiModel:         r.getStr("GEMINI_MODEL", adapter.DefaultGeminiModel),
		GeminiBaseURL:       r.getStr("GEMINI_BASE_URL", adapter.DefaultGeminiBaseURL),
		YouTubeBaseURL:      r.getStr("YOUTUBE_BASE_URL", adapter.DefaultYouTubeBaseURL),
		UpstreamTimeout:     time.Duration(r.getInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		YouTubeStrategy:     r.getStr("YOUTUBE_STRATEGY", failover.StrategyRoundRobin),
		GeminiStrategy:      r.getStr("GEMINI_STRATEGY", failover.StrategyShuffle),
		KeyEncryptionSecret: r.getStr("KEY_ENCRYPTION_SECRET", ""),
		LogLevel:            r.getStr("LOG_LEVEL", "info"),
		LogFile:             r.getStr("LOG_FILE", ""),
		LogMaxSizeMB:        r.getInt("LOG_MAX_SIZE_MB", 10),
		RateLimitRPS:        r.getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      r.getInt("RATE_LIMIT_BURST", 20),
		AttemptLogKeep:      r.getInt("ATTEMPT_LOG_KEEP", 500),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate 校验取值范围
func (s *Settings) Validate() error {
	switch s.CacheBackend {
	case CacheBackendSQLite, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: must be sqlite, redis or memory", s.CacheBackend)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", s.Port)
	}
	if s.UpstreamTimeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be non-negative")
	}
	if s.RateLimitRPS < 0 || s.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must be non-negative. 0 for no limit")
	}
	for _, name := range []string{s.YouTubeStrategy, s.GeminiStrategy} {
		if _, err := failover.StrategyByName(name, nil); err != nil {
			return err
		}
	}
	return nil
}

type settingsReader struct {
	lookup LookupFunc
	err    error
}

func (r *settingsReader) getStr(key, def string) string {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return def
	}
	return v
}

func (r *settingsReader) getInt(key string, def int) int {
	v := r.getStr(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid integer for %s: %q", key, v)
	}
	return n
}

func (r *settingsReader) getFloat(key string, def float64) float64 {
	v := r.getStr(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid number for %s: %q", key, v)
	}
	return f
}
