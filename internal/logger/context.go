package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns the global logger tagged with the request_id carried by ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		return L()
	}
	return L().With(zap.String("request_id", reqID))
}

// ForMethod is FromCtx plus the layer/method pair every repository and
// service logs under.
func ForMethod(ctx context.Context, layer, method string, fields ...zap.Field) *zap.Logger {
	base := []zap.Field{
		zap.String("layer", layer),
		zap.String("method", method),
	}
	return FromCtx(ctx).With(append(base, fields...)...)
}
