package failover

import "errors"

// Outcome 单次上游调用的分类结果
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classifier 把上游错误归类为 Retryable 或 Terminal
// 只会以非 nil 的 err 调用；各上游的解析逻辑放在 adapter 包中
type Classifier func(err error) Outcome

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// MarkRetryable 显式标记一个错误为可重试
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// ClassifyMarked 默认分类器：只有 MarkRetryable 包装过的错误可重试
func ClassifyMarked(err error) Outcome {
	var re *retryableError
	if errors.As(err, &re) {
		return OutcomeRetryable
	}
	return OutcomeTerminal
}
