// Package internal provides the retrying transport behind clientx.
package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"go.barcircle.dev/web/core/utils"
)

// Attempt records one send of a request. Values are never mutated after creation.
type Attempt struct {
	Number int           // 1-based
	Delay  time.Duration // wait that preceded this attempt; zero for the first
}

// Next returns the attempt that follows a, waiting per b.
func (a Attempt) Next(b utils.Backoff) Attempt {
	return Attempt{Number: a.Number + 1, Delay: b.Delay(a.Number)}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Trace collects the attempts made for one request.
type Trace struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (t *Trace) add(a Attempt) {
	t.mu.Lock()
	t.attempts = append(t.attempts, a)
	t.mu.Unlock()
}

// Attempts returns a copy of the recorded attempts.
func (t *Trace) Attempts() []Attempt {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Attempt(nil), t.attempts...)
}

// Count returns how many attempts were made.
func (t *Trace) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attempts)
}

type traceKey struct{}

// WithTrace attaches t to ctx so RetryTransport records into it.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func traceFrom(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey{}).(*Trace)
	return t
}

// Config configures RetryTransport.
type Config struct {
	Backoff        utils.Backoff
	AttemptTimeout time.Duration // zero disables the per-attempt deadline
	Sleep          Sleeper
	Breaker        *gobreaker.CircuitBreaker
	// OnRetry runs before waiting for the next attempt.
	OnRetry func(req *http.Request, failed Attempt, next Attempt, err error)
}

// RetryTransport retries requests that produced no response at all.
// Any HTTP response, whatever its status, ends the loop.
type RetryTransport struct {
	base http.RoundTripper
	cfg  Config
}

// NewRetryTransport creates a new retry transport with the given configuration.
func NewRetryTransport(base http.RoundTripper, cfg Config) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.Sleep == nil {
		cfg.Sleep = utils.Sleep
	}
	return &RetryTransport{base: base, cfg: cfg}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	trace := traceFrom(ctx)
	attempt := Attempt{Number: 1}

	for {
		if trace != nil {
			trace.add(attempt)
		}

		resp, err := t.attempt(req, attempt)
		if err == nil {
			return resp, nil
		}

		if !t.retryable(ctx, err) || attempt.Number > t.cfg.Backoff.MaxRetries {
			return nil, err
		}

		next := attempt.Next(t.cfg.Backoff)
		if t.cfg.OnRetry != nil {
			t.cfg.OnRetry(req, attempt, next, err)
		}
		if serr := t.cfg.Sleep(ctx, next.Delay); serr != nil {
			return nil, serr
		}
		attempt = next
	}
}

func (t *RetryTransport) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (t *RetryTransport) attempt(req *http.Request, a Attempt) (*http.Response, error) {
	clone, cancel, err := t.prepare(req, a)
	if err != nil {
		return nil, err
	}

	send := func() (any, error) { return t.base.RoundTrip(clone) }
	var result any
	if t.cfg.Breaker != nil {
		result, err = t.cfg.Breaker.Execute(send)
	} else {
		result, err = send()
	}
	if err != nil {
		cancel()
		return nil, err
	}

	resp := result.(*http.Response)
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// prepare clones req for one attempt, rewinding the body and applying the attempt deadline.
func (t *RetryTransport) prepare(req *http.Request, a Attempt) (*http.Request, context.CancelFunc, error) {
	ctx := req.Context()
	cancel := context.CancelFunc(func() {})
	if t.cfg.AttemptTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.cfg.AttemptTimeout)
	}

	clone := req.Clone(ctx)
	if a.Number > 1 && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			cancel()
			return nil, nil, errors.New("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			cancel()
			return nil, nil, err
		}
		clone.Body = body
	}
	return clone, cancel, nil
}

// cancelBody releases the attempt deadline once the caller is done with the body.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
