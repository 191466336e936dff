package failover

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Attempt 一次尝试的可观测信息
type Attempt struct {
	Provider   string
	Ordinal    int // 本次调用内第几次尝试，从 1 开始
	PoolSize   int
	KeyOrdinal int // Key 在池中的序号，从 1 开始
	MaskedKey  string
	Outcome    Outcome
	Err        error
	Duration   time.Duration
}

// Observer 接收每次尝试的结果 (日志、指标、审计)
// 实现不能阻塞调用方
type Observer interface {
	ObserveAttempt(ctx context.Context, a Attempt)
}

// ObserverFunc 函数适配器
type ObserverFunc func(ctx context.Context, a Attempt)

func (f ObserverFunc) ObserveAttempt(ctx context.Context, a Attempt) { f(ctx, a) }

type multiObserver []Observer

func (m multiObserver) ObserveAttempt(ctx context.Context, a Attempt) {
	for _, o := range m {
		o.ObserveAttempt(ctx, a)
	}
}

// Observers 组合多个 Observer，忽略 nil
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// LogObserver 用 logrus 记录每次尝试
type LogObserver struct {
	logger *logrus.Logger
}

func NewLogObserver(logger *logrus.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) ObserveAttempt(_ context.Context, a Attempt) {
	entry := o.logger.WithFields(logrus.Fields{
		"provider":  a.Provider,
		"attempt":   a.Ordinal,
		"pool_size": a.PoolSize,
		"key":       a.MaskedKey,
		"outcome":   a.Outcome.String(),
		"latency":   a.Duration.Milliseconds(),
	})

	switch a.Outcome {
	case OutcomeSuccess:
		entry.Infof("✅ Attempt %d/%d: %s key #%d succeeded", a.Ordinal, a.PoolSize, a.Provider, a.KeyOrdinal)
	case OutcomeRetryable:
		entry.WithError(a.Err).Warnf("⚠️ Attempt %d/%d: %s key #%d rate limited, switching to next key", a.Ordinal, a.PoolSize, a.Provider, a.KeyOrdinal)
	default:
		entry.WithError(a.Err).Errorf("❌ Attempt %d/%d: %s key #%d non-retryable error", a.Ordinal, a.PoolSize, a.Provider, a.KeyOrdinal)
	}
}

// MaskKey 脱敏 API Key
func MaskKey(key string) string {
	if key == "" {
		return "***"
	}
	// 短 Key 只露首字符
	if len(key) <= 8 {
		return key[:1] + "***"
	}
	return key[:4] + "***" + key[len(key)-4:]
}
