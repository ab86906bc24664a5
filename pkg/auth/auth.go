// Package auth supplies bearer tokens to the tracker transport.
//
// The transport only injects credentials. It never acquires, caches or
// refreshes them: before every attempt it asks a TokenProvider for the
// current token and sends it as "Authorization: Bearer <token>" when the
// token is non-empty. Providers that need to fetch or refresh a token do so
// behind the TokenProvider interface, on their own schedule.
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TokenProvider returns the credential for the next request. An empty token
// with a nil error means "send no Authorization header". Token may block; it
// must honour ctx.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider. Both immediate and deferred
// implementations are called the same way.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same token
type StaticToken string

// Token returns the static token
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// EnvToken reads the token from an environment variable on every call, so a
// rotated value is picked up by the next request.
type EnvToken string

// Token returns the variable's current value, trimmed of whitespace
func (e EnvToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(os.Getenv(string(e))), nil
}

// ChainProvider tries each provider in order and returns the first non-empty
// token. An error from any provider stops the chain.
type ChainProvider []TokenProvider

// Chain builds a ChainProvider, skipping nil entries
func Chain(providers ...TokenProvider) ChainProvider {
	chain := make(ChainProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return chain
}

// Token implements TokenProvider
func (c ChainProvider) Token(ctx context.Context) (string, error) {
	for i, p := range c {
		token, err := p.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("token provider %d: %w", i, err)
		}
		if token != "" {
			return token, nil
		}
	}
	return "", nil
}

type contextKey string

const tokenKey contextKey = "bearer_token"

// ContextWithToken attaches a per-call token override to ctx
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the token attached by ContextWithToken
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// ContextToken is a TokenProvider that reads the per-call override. Put it
// first in a chain to let individual calls act on behalf of another user.
type ContextToken struct{}

// Token implements TokenProvider
func (ContextToken) Token(ctx context.Context) (string, error) {
	token, _ := TokenFromContext(ctx)
	return token, nil
}

// Resolve returns the token from p, or "" when p is nil
func Resolve(ctx context.Context, p TokenProvider) (string, error) {
	if p == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Token(ctx)
}
