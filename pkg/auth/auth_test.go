package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
)

func TestStaticToken(t *testing.T) {
	token, err := auth.StaticToken("secret").Token(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if token != "secret" {
		t.Errorf("Expected token secret, got %q", token)
	}
}

func TestTokenFuncDeferred(t *testing.T) {
	provider := auth.TokenFunc(func(ctx context.Context) (string, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return "late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	token, err := provider.Token(context.Background())
	if err != nil || token != "late" {
		t.Fatalf("Expected late token, got %q, %v", token, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := auth.Resolve(ctx, provider); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEnvToken(t *testing.T) {
	t.Setenv("TRACKER_TEST_TOKEN", "  from-env \n")

	token, err := auth.EnvToken("TRACKER_TEST_TOKEN").Token(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if token != "from-env" {
		t.Errorf("Expected trimmed token, got %q", token)
	}

	t.Setenv("TRACKER_TEST_TOKEN", "rotated")
	token, _ = auth.EnvToken("TRACKER_TEST_TOKEN").Token(context.Background())
	if token != "rotated" {
		t.Errorf("Expected rotated token, got %q", token)
	}
}

func TestChainProvider(t *testing.T) {
	chain := auth.Chain(
		auth.ContextToken{},
		nil,
		auth.EnvToken("TRACKER_TEST_UNSET_TOKEN"),
		auth.StaticToken("fallback"),
	)
	if len(chain) != 3 {
		t.Fatalf("Expected nil provider to be skipped, got %d providers", len(chain))
	}

	token, err := chain.Token(context.Background())
	if err != nil || token != "fallback" {
		t.Errorf("Expected fallback token, got %q, %v", token, err)
	}

	ctx := auth.ContextWithToken(context.Background(), "override")
	token, _ = chain.Token(ctx)
	if token != "override" {
		t.Errorf("Expected context override, got %q", token)
	}

	failing := auth.Chain(auth.TokenFunc(func(context.Context) (string, error) {
		return "", errors.New("vault sealed")
	}), auth.StaticToken("never"))
	if _, err := failing.Token(context.Background()); err == nil {
		t.Error("Expected error to stop the chain")
	}

	empty, err := auth.Chain().Token(context.Background())
	if err != nil || empty != "" {
		t.Errorf("Expected empty token from empty chain, got %q, %v", empty, err)
	}
}

func TestResolveNil(t *testing.T) {
	token, err := auth.Resolve(context.Background(), nil)
	if err != nil || token != "" {
		t.Errorf("Expected no token, got %q, %v", token, err)
	}
}
