package failover

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusErr 模拟带状态码的上游错误
type statusErr struct{ code int }

func (e *statusErr) Error() string { return fmt.Sprintf("upstream status %d", e.code) }

func classifyStatus(err error) Outcome {
	var se *statusErr
	if errors.As(err, &se) && (se.code == 429 || se.code == 503) {
		return OutcomeRetryable
	}
	return OutcomeTerminal
}

// scriptedCall 按 Key 返回预设结果并记录调用顺序
type scriptedCall struct {
	results map[string]error
	value   string
	calls   []string
}

func (s *scriptedCall) call(_ context.Context, key string) (string, error) {
	s.calls = append(s.calls, key)
	if err := s.results[key]; err != nil {
		return "", err
	}
	return s.value, nil
}

func newRR(keys ...string) *Failover {
	return New(NewKeyPool("test", keys), &RoundRobinStrategy{}, classifyStatus)
}

func TestInvokeRetriesUntilSuccess(t *testing.T) {
	f := newRR("K1", "K2", "K3")
	sc := &scriptedCall{
		results: map[string]error{"K1": &statusErr{429}, "K2": &statusErr{429}},
		value:   "V",
	}

	v, err := Invoke(context.Background(), f, sc.call)

	require.NoError(t, err)
	assert.Equal(t, "V", v)
	assert.Equal(t, []string{"K1", "K2", "K3"}, sc.calls)
}

func TestInvokeFirstSuccessStops(t *testing.T) {
	f := newRR("K1", "K2", "K3")
	sc := &scriptedCall{value: "ok"}

	v, err := Invoke(context.Background(), f, sc.call)

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Len(t, sc.calls, 1)
}

func TestInvokeTerminalStopsImmediately(t *testing.T) {
	f := newRR("K1")
	bad := &statusErr{400}
	sc := &scriptedCall{results: map[string]error{"K1": bad}}

	_, err := Invoke(context.Background(), f, sc.call)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.NotErrorIs(t, err, ErrPoolExhausted)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, AttemptCount(err))
	assert.Len(t, sc.calls, 1)
}

func TestInvokeTerminalOnAttemptKSkipsRest(t *testing.T) {
	f := newRR("K1", "K2", "K3", "K4")
	sc := &scriptedCall{results: map[string]error{
		"K1": &statusErr{503},
		"K2": &statusErr{400},
	}}

	_, err := Invoke(context.Background(), f, sc.call)

	assert.ErrorIs(t, err, ErrTerminal)
	assert.Equal(t, []string{"K1", "K2"}, sc.calls)
}

func TestInvokeExhausted(t *testing.T) {
	f := newRR("K1", "K2")
	last := &statusErr{503}
	sc := &scriptedCall{results: map[string]error{"K1": &statusErr{503}, "K2": last}}

	_, err := Invoke(context.Background(), f, sc.call)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.NotErrorIs(t, err, ErrTerminal)

	var se *statusErr
	require.True(t, errors.As(err, &se))
	assert.Same(t, last, se)
	assert.Equal(t, 2, AttemptCount(err))
	assert.Len(t, sc.calls, 2)
}

func TestInvokeNeverExceedsPoolSize(t *testing.T) {
	for _, strategy := range []Strategy{&RoundRobinStrategy{}, NewShuffleStrategy(nil), &FallbackStrategy{}} {
		t.Run(strategy.Name(), func(t *testing.T) {
			for size := 1; size <= 6; size++ {
				keys := make([]string, size)
				for i := range keys {
					keys[i] = fmt.Sprintf("K%d", i+1)
				}
				f := New(NewKeyPool("p", keys), strategy, classifyStatus)

				calls := map[string]int{}
				_, err := Invoke(context.Background(), f, func(_ context.Context, key string) (int, error) {
					calls[key]++
					return 0, &statusErr{429}
				})

				assert.ErrorIs(t, err, ErrPoolExhausted)
				assert.Len(t, calls, size, "every key tried")
				for k, n := range calls {
					assert.Equal(t, 1, n, k)
				}
			}
		})
	}
}

func TestInvokeEmptyPool(t *testing.T) {
	f := newRR()
	called := false

	_, err := Invoke(context.Background(), f, func(context.Context, string) (string, error) {
		called = true
		return "", nil
	})

	assert.ErrorIs(t, err, ErrNoKeys)
	assert.False(t, called)
}

func TestInvokeRetryableKeyStaysInPool(t *testing.T) {
	f := newRR("K1", "K2")

	// 第一次: K1 429, K2 成功
	sc := &scriptedCall{results: map[string]error{"K1": &statusErr{429}}, value: "v"}
	_, err := Invoke(context.Background(), f, sc.call)
	require.NoError(t, err)

	// 第二次: 游标回到 K1，K1 依然可用
	sc2 := &scriptedCall{value: "v2"}
	v, err := Invoke(context.Background(), f, sc2.call)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, []string{"K1"}, sc2.calls)
	assert.Equal(t, 2, f.Pool().Size())
}

func TestInvokeCancelledContext(t *testing.T) {
	f := newRR("K1", "K2")
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Invoke(ctx, f, func(context.Context, string) (string, error) {
		calls++
		cancel()
		return "", &statusErr{429}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestInvokeCancelledDuringCallIsNotTerminal(t *testing.T) {
	f := newRR("K1", "K2")
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Invoke(ctx, f, func(ctx context.Context, _ string) (string, error) {
		cancel()
		return "", fmt.Errorf("transport: %w", ctx.Err())
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTerminal)
	assert.Zero(t, AttemptCount(err))
}

func TestInvokeObservesEveryAttempt(t *testing.T) {
	var seen []Attempt
	obs := ObserverFunc(func(_ context.Context, a Attempt) { seen = append(seen, a) })
	f := New(NewKeyPool("gemini", []string{"key-one-1111", "key-two-2222"}), &FallbackStrategy{}, classifyStatus, obs, nil)

	sc := &scriptedCall{results: map[string]error{"key-one-1111": &statusErr{429}}, value: "x"}
	_, err := Invoke(context.Background(), f, sc.call)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "gemini", seen[0].Provider)
	assert.Equal(t, 1, seen[0].Ordinal)
	assert.Equal(t, 2, seen[0].PoolSize)
	assert.Equal(t, 1, seen[0].KeyOrdinal)
	assert.Equal(t, OutcomeRetryable, seen[0].Outcome)
	assert.Equal(t, "key-***1111", seen[0].MaskedKey)
	assert.Equal(t, 2, seen[1].Ordinal)
	assert.Equal(t, OutcomeSuccess, seen[1].Outcome)
}

func TestInvokeDefaultClassifier(t *testing.T) {
	f := New(NewKeyPool("p", []string{"a", "b"}), nil, nil)

	calls := 0
	v, err := Invoke(context.Background(), f, func(_ context.Context, key string) (string, error) {
		calls++
		if key == "a" {
			return "", MarkRetryable(errors.New("busy"))
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, 2, calls)
	assert.Equal(t, OutcomeTerminal, ClassifyMarked(errors.New("plain")))
	assert.Nil(t, MarkRetryable(nil))
}
