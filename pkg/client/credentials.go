package client

import (
	"context"

	"github.com/google/uuid"
)

// Credentials supplies the bearer token attached to every API call.
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches an Idempotency-Key to mutations issued with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// NewIdempotencyKey returns a random key for one logical submission.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// IdempotencyKeyFrom returns the key attached with WithIdempotencyKey, or "".
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}
