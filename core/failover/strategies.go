package failover

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	StrategyRoundRobin = "round_robin"
	StrategyShuffle    = "shuffle"
	StrategyFallback   = "fallback"
)

var ErrUnknownStrategy = errors.New("unknown rotation strategy")

// Sequence 一次调用内的 Key 尝试顺序
// 每个 Sequence 最多产出 pool.Size() 个 Key
type Sequence interface {
	Next() (key string, ok bool)
}

// Strategy 定义 Key 轮换策略
type Strategy interface {
	// Name 返回策略名称，如 "round_robin", "shuffle"
	Name() string

	// Sequence 为一次顶层调用生成尝试顺序
	Sequence(pool *KeyPool) Sequence
}

// RoundRobinStrategy 轮询策略
// 每次尝试都从池的共享游标取 Key，游标跨请求持续推进
type RoundRobinStrategy struct{}

func (s *RoundRobinStrategy) Name() string { return StrategyRoundRobin }

func (s *RoundRobinStrategy) Sequence(pool *KeyPool) Sequence {
	return &cursorSequence{pool: pool, remaining: pool.Size()}
}

type cursorSequence struct {
	pool      *KeyPool
	remaining int
}

func (c *cursorSequence) Next() (string, bool) {
	if c.remaining <= 0 {
		return "", false
	}
	c.remaining--
	return c.pool.Next(), true
}

// ShuffleStrategy 每次调用生成一个新的随机排列，调用之间不共享状态
type ShuffleStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand // nil 表示使用全局随机源
}

// NewShuffleStrategy rng 可为 nil；测试中传入固定种子的 rng
func NewShuffleStrategy(rng *rand.Rand) *ShuffleStrategy {
	return &ShuffleStrategy{rng: rng}
}

func (s *ShuffleStrategy) Name() string { return StrategyShuffle }

func (s *ShuffleStrategy) Sequence(pool *KeyPool) Sequence {
	return &indexSequence{pool: pool, order: s.perm(pool.Size())}
}

func (s *ShuffleStrategy) perm(n int) []int {
	if s.rng == nil {
		return rand.Perm(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

// FallbackStrategy 故障转移/优先级策略
// 总是从第一个 Key 开始，后面的 Key 只在前面的失败时才会被使用
type FallbackStrategy struct{}

func (s *FallbackStrategy) Name() string { return StrategyFallback }

func (s *FallbackStrategy) Sequence(pool *KeyPool) Sequence {
	order := make([]int, pool.Size())
	for i := range order {
		order[i] = i
	}
	return &indexSequence{pool: pool, order: order}
}

type indexSequence struct {
	pool  *KeyPool
	order []int
	pos   int
}

func (s *indexSequence) Next() (string, bool) {
	if s.pos >= len(s.order) {
		return "", false
	}
	key := s.pool.At(s.order[s.pos])
	s.pos++
	return key, true
}

// StrategyByName 按名称构造策略，空名称返回 def
func StrategyByName(name string, def Strategy) (Strategy, error) {
	switch name {
	case "":
		return def, nil
	case StrategyRoundRobin:
		return &RoundRobinStrategy{}, nil
	case StrategyShuffle:
		return NewShuffleStrategy(nil), nil
	case StrategyFallback:
		return &FallbackStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
