package transport

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
)

const (
	readChunkSize = 4096
	// maxFrameSize bounds a single line; a longer one drops the connection
	maxFrameSize = 1 << 20
)

var (
	errStreamEnded   = stderrors.New("event stream closed by server")
	errFrameTooLarge = fmt.Errorf("event frame exceeds %d bytes", maxFrameSize)
)

// manualChannel reads the event stream body itself. It works with any Doer.
type manualChannel struct {
	exec   *executor
	tokens auth.TokenProvider
	path   string
	delay  time.Duration
}

func (c *manualChannel) Mode() ChannelMode {
	return ModeManual
}

// Run connects and reconnects after a fixed delay until ctx is done. Every
// failure other than cancellation, including a clean end of stream, leads
// to a reconnect.
func (c *manualChannel) Run(ctx context.Context, deliver func([]byte), obs *streamObserver) error {
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := c.connect(ctx, deliver, obs)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		if err == nil {
			err = errStreamEnded
		}
		return err
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.delay), ctx)
	return backoff.RetryNotify(operation, b, func(err error, delay time.Duration) {
		obs.disconnected(ctx, err, delay)
	})
}

// connect holds one connection open until the stream ends, fails, or ctx is
// done
func (c *manualChannel) connect(ctx context.Context, deliver func([]byte), obs *streamObserver) error {
	token, err := auth.Resolve(ctx, c.tokens)
	if err != nil {
		return fmt.Errorf("failed to resolve token: %w", err)
	}

	body, err := c.exec.openStream(ctx, c.path, token)
	if err != nil {
		return err
	}
	defer body.Close()

	obs.connected(ctx)

	connCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(connCtx)

	// Closing the body unblocks a Read that does not watch the context.
	g.Go(func() error {
		<-gctx.Done()
		body.Close()
		return nil
	})

	g.Go(func() error {
		defer stop()
		return readFrames(body, deliver)
	})

	return g.Wait()
}

// readFrames reads body in chunks and delivers each complete frame payload
// before reading further. It returns nil at end of stream.
func readFrames(body io.Reader, deliver func([]byte)) error {
	var splitter frameSplitter
	buf := make([]byte, readChunkSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			payloads, ferr := splitter.Feed(buf[:n])
			for _, payload := range payloads {
				deliver(payload)
			}
			if ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

var dataPrefix = []byte("data:")

// frameSplitter turns arbitrary chunks of an event stream into data
// payloads. A line may span any number of chunks; only complete lines are
// examined.
type frameSplitter struct {
	pending []byte
}

// Feed appends chunk and returns the payloads of the data lines it
// completed, in order
func (s *frameSplitter) Feed(chunk []byte) ([][]byte, error) {
	s.pending = append(s.pending, chunk...)

	var payloads [][]byte
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(s.pending[:i], []byte("\r"))
		if payload, ok := dataPayload(line); ok {
			payloads = append(payloads, payload)
		}
		s.pending = s.pending[i+1:]
	}

	// Compact so the backing array does not grow without bound.
	s.pending = append([]byte(nil), s.pending...)
	if len(s.pending) > maxFrameSize {
		s.pending = nil
		return payloads, errFrameTooLarge
	}
	return payloads, nil
}

// dataPayload returns a copy of the payload of a "data:" line with one
// optional leading space removed. Empty payloads are dropped.
func dataPayload(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	payload := line[len(dataPrefix):]
	if len(payload) > 0 && payload[0] == ' ' {
		payload = payload[1:]
	}
	if len(payload) == 0 {
		return nil, false
	}
	return append([]byte(nil), payload...), true
}
