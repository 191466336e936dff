package failover

import "errors"

var (
	// ErrNoKeys 池为空，属于配置错误，不会发起任何上游调用
	ErrNoKeys = errors.New("no api keys configured")

	// ErrTerminal 不可重试的上游错误 (400、内容审核拒绝等)
	ErrTerminal = errors.New("non-retryable upstream error")

	// ErrPoolExhausted 所有 Key 都因可重试错误失败
	ErrPoolExhausted = errors.New("all api keys exhausted")
)

// AttemptsError 携带尝试次数，Unwrap 同时暴露分类哨兵错误和最后一次上游错误
type AttemptsError struct {
	Kind     error
	Attempts int
	Last     error
}

func (e *AttemptsError) Error() string {
	if e.Last == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Last.Error()
}

func (e *AttemptsError) Unwrap() []error {
	if e.Last == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Last}
}

// AttemptCount 从错误链中取出尝试次数，不是 AttemptsError 时返回 0
func AttemptCount(err error) int {
	var ae *AttemptsError
	if errors.As(err, &ae) {
		return ae.Attempts
	}
	return 0
}
