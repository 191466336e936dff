package failover

import "sync"

// KeyPool 单个上游服务的 API Key 集合 (进程内只读)
// 游标是唯一的可变状态，由 mutex 保护
type KeyPool struct {
	name string
	keys []string

	mu     sync.Mutex
	cursor int
}

// NewKeyPool 创建 Key 池，keys 会被复制一份，调用方之后修改原切片不影响池
func NewKeyPool(name string, keys []string) *KeyPool {
	cp := make([]string, len(keys))
	copy(cp, keys)
	return &KeyPool{name: name, keys: cp}
}

func (p *KeyPool) Name() string { return p.name }

// Size 返回 Key 数量
func (p *KeyPool) Size() int { return len(p.keys) }

func (p *KeyPool) Empty() bool { return len(p.keys) == 0 }

// At 按下标取 Key
func (p *KeyPool) At(i int) string { return p.keys[i] }

// Next 返回游标处的 Key 并推进游标 (取模)
// 调用方必须先确认池非空
func (p *KeyPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.keys[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.keys)
	return key
}

// Ordinal 返回 Key 在池中的序号 (从 1 开始)，找不到返回 0
func (p *KeyPool) Ordinal(key string) int {
	for i, k := range p.keys {
		if k == key {
			return i + 1
		}
	}
	return 0
}
