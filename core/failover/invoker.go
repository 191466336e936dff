package failover

import (
	"context"
	"time"
)

// Failover 把一个 Key 池、轮换策略、错误分类器组合成一个上游调用器
type Failover struct {
	provider string
	pool     *KeyPool
	strategy Strategy
	classify Classifier
	observer Observer
}

// New 构造函数；strategy 为 nil 时使用轮询，classify 为 nil 时使用 ClassifyMarked
func New(pool *KeyPool, strategy Strategy, classify Classifier, observers ...Observer) *Failover {
	if strategy == nil {
		strategy = &RoundRobinStrategy{}
	}
	if classify == nil {
		classify = ClassifyMarked
	}
	return &Failover{
		provider: pool.Name(),
		pool:     pool,
		strategy: strategy,
		classify: classify,
		observer: Observers(observers...),
	}
}

func (f *Failover) Pool() *KeyPool { return f.pool }

func (f *Failover) Strategy() Strategy { return f.strategy }

// Call 单次上游调用，使用给定 Key
type Call[T any] func(ctx context.Context, key string) (T, error)

// Invoke 依次使用策略给出的 Key 执行 call:
//   - 成功立即返回
//   - 可重试错误换下一个 Key，不做退避
//   - 不可重试错误立即返回 ErrTerminal
//   - Key 用尽返回 ErrPoolExhausted，并保留最后一次错误
func Invoke[T any](ctx context.Context, f *Failover, call Call[T]) (T, error) {
	var zero T

	if f.pool.Empty() {
		return zero, ErrNoKeys
	}

	seq := f.strategy.Sequence(f.pool)
	size := f.pool.Size()

	var lastErr error
	attempts := 0

	for {
		key, ok := seq.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		attempts++

		start := time.Now()
		val, err := call(ctx, key)
		elapsed := time.Since(start)

		outcome := OutcomeSuccess
		if err != nil {
			outcome = f.classify(err)
			if outcome == OutcomeSuccess {
				outcome = OutcomeTerminal
			}
		}

		f.observer.ObserveAttempt(ctx, Attempt{
			Provider:   f.provider,
			Ordinal:    attempts,
			PoolSize:   size,
			KeyOrdinal: f.pool.Ordinal(key),
			MaskedKey:  MaskKey(key),
			Outcome:    outcome,
			Err:        err,
			Duration:   elapsed,
		})

		// 调用方取消或超时时不再分类，直接返回 ctx 错误
		if err != nil && ctx.Err() != nil {
			return zero, ctx.Err()
		}

		switch outcome {
		case OutcomeSuccess:
			return val, nil
		case OutcomeRetryable:
			lastErr = err
			continue
		default:
			return zero, &AttemptsError{Kind: ErrTerminal, Attempts: attempts, Last: err}
		}
	}

	return zero, &AttemptsError{Kind: ErrPoolExhausted, Attempts: attempts, Last: lastErr}
}
