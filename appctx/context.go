// Package appctx centralizes request-scoped context keys so the API layer,
// middlewares and model code agree on how identity travels through a request.
package appctx

import "context"

type ContextKey string

const (
	ContextKeyToken         ContextKey = "token"
	ContextKeyCompanyId     ContextKey = "company_id"
	ContextKeyUserId        ContextKey = "user_id"
	ContextKeyUserName      ContextKey = "user_name"
	ContextKeyCorrelationId ContextKey = "correlation_id"
)

func Set(ctx context.Context, key ContextKey, value interface{}) context.Context {
	return context.WithValue(ctx, key, value)
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetInt(ctx context.Context, key ContextKey) (int, bool) {
	v, ok := ctx.Value(key).(int)
	return v, ok
}
