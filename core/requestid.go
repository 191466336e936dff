package core

import "context"

type requestIDKey struct{}

// WithRequestID 把请求 ID 放入 context，供尝试记录关联使用
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 取出请求 ID，不存在时返回 ""
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
