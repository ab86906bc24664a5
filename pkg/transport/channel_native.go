package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/r3labs/sse/v2"
	backoffv1 "gopkg.in/cenkalti/backoff.v1"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
)

// nativeChannel hands the stream to the SSE client library, which parses
// frames and reconnects on its own. It needs a real *http.Client.
type nativeChannel struct {
	url     string
	client  *http.Client
	headers map[string]string
	delay   time.Duration
}

func newNativeChannel(t *Transport, hc *http.Client, config SubscriberConfig) *nativeChannel {
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	client := *hc
	// The stream lives as long as the subscription.
	client.Timeout = 0
	client.Transport = &tokenRoundTripper{next: next, tokens: t.config.TokenProvider}

	headers := make(map[string]string, len(t.config.Headers)+1)
	for k, v := range t.config.Headers {
		headers[k] = v
	}
	headers["User-Agent"] = t.config.UserAgent

	return &nativeChannel{
		url:     t.config.BaseURL + config.Path,
		client:  &client,
		headers: headers,
		delay:   config.ReconnectDelay,
	}
}

func (c *nativeChannel) Mode() ChannelMode {
	return ModeNative
}

// Run subscribes until ctx is done. The library reconnects after failures;
// when it returns anyway, because the server ended the stream cleanly, the
// stream is reopened after the same delay.
func (c *nativeChannel) Run(ctx context.Context, deliver func([]byte), obs *streamObserver) error {
	for {
		client := sse.NewClient(c.url)
		client.Connection = c.client
		client.Headers = c.headers
		// The library waits on the policy's context, so Cancel interrupts a
		// pending reconnect.
		client.ReconnectStrategy = backoffv1.WithContext(backoffv1.NewConstantBackOff(c.delay), ctx)
		client.ReconnectNotify = func(err error, delay time.Duration) {
			obs.disconnected(ctx, err, delay)
		}
		client.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				resp.Body.Close()
				return &trackererrors.ExchangeError{Status: resp.StatusCode}
			}
			obs.connected(ctx)
			return nil
		}

		err := client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
			if len(msg.Data) == 0 {
				return
			}
			deliver(append([]byte(nil), msg.Data...))
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil {
			err = errStreamEnded
		}

		obs.disconnected(ctx, err, c.delay)
		if err := sleepContext(ctx, c.delay); err != nil {
			return err
		}
	}
}

// tokenRoundTripper adds the bearer token to every stream request, so a
// reconnect picks up a rotated token
type tokenRoundTripper struct {
	next   http.RoundTripper
	tokens auth.TokenProvider
}

func (rt *tokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := auth.Resolve(req.Context(), rt.tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	if token == "" {
		return rt.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return rt.next.RoundTrip(req)
}
