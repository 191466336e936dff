package core

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"pathway-gateway/core/failover"
)

// LookupFunc 读取配置项，签名与 os.LookupEnv 一致
type LookupFunc func(key string) (string, bool)

// KeySource 一个上游的 Key 命名约定
type KeySource struct {
	Provider    string
	Prefix      string // PREFIX_1..PREFIX_N，或单个 PREFIX
	MaxNumbered int
	LegacyList  string // 逗号分隔的旧格式，可为空
}

var (
	GeminiKeySource  = KeySource{Provider: "gemini", Prefix: "GEMINI_API_KEY", MaxNumbered: 8}
	YouTubeKeySource = KeySource{Provider: "youtube", Prefix: "YOUTUBE_API_KEY", MaxNumbered: 6, LegacyList: "YOUTUBE_API_KEYS"}
)

// LoadKeys 按优先级读取 Key，第一个非空的约定生效:
//  1. 编号 Key PREFIX_1..PREFIX_N
//  2. 单个 PREFIX
//  3. 旧的逗号分隔列表
func LoadKeys(lookup LookupFunc, src KeySource) []string {
	get := func(name string) string {
		v, _ := lookup(name)
		return strings.TrimSpace(v)
	}

	keys := make([]string, 0, src.MaxNumbered)
	for i := 1; i <= src.MaxNumbered; i++ {
		if k := get(fmt.Sprintf("%s_%d", src.Prefix, i)); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		return keys
	}

	if k := get(src.Prefix); k != "" {
		return []string{k}
	}

	if src.LegacyList != "" {
		for _, k := range strings.Split(get(src.LegacyList), ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// LoadKeyPool 读取 Key 并构造 Key 池
// secrets 非 nil 时每个 Key 先解密，解密失败的 Key 被跳过
func LoadKeyPool(lookup LookupFunc, src KeySource, secrets SecretProvider, logger *logrus.Logger) *failover.KeyPool {
	raw := LoadKeys(lookup, src)

	keys := make([]string, 0, len(raw))
	for i, k := range raw {
		if secrets != nil {
			plain, err := secrets.Decrypt(k)
			if err != nil {
				logger.Errorf("Failed to decrypt %s key #%d: %v", src.Provider, i+1, err)
				continue
			}
			k = plain
		}
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		logger.Errorf("FATAL: No %s API keys found. Please configure %s_1, etc. in .env", src.Provider, src.Prefix)
	} else {
		logger.Infof("Loaded %d %s API key(s)", len(keys), src.Provider)
	}
	return failover.NewKeyPool(src.Provider, keys)
}
