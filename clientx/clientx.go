// Package clientx provides the HTTP gateway every backend call goes through.
//
// Overview:
//   - Responsibility: Send REST calls, unwrap the {code,message,data} envelope,
//     retry connection failures, reconcile 401s with the session, raise notices
//   - Key Types: Gateway, Request, Options, AuthState
//   - Concurrency Model: A Gateway is safe for concurrent use
//   - Error Semantics: Every call settles with a payload or a *errors.E classified as
//     CONNECTION, APPLICATION or HTTP_STATUS; only CONNECTION is retried
//   - Performance Notes: Three retries at 1s, 2s and 4s by default; 30s per attempt
//
// Usage:
//
//	gw, err := clientx.New("http://localhost:8080",
//	  clientx.WithAuthState(store),
//	  clientx.WithNotifier(queue),
//	)
//	user, err := clientx.Do[identity.User](ctx, gw, clientx.Get(clientx.ProbePath, nil))
package clientx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"go.barcircle.dev/web/clientx/internal"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/core/utils"
)

// ProbePath is the session probe endpoint. A 401 here is the only failure that clears the session.
const ProbePath = "/auth/me"

// DefaultSilentPaths are endpoints whose connection failures never raise a notice.
var DefaultSilentPaths = []string{ProbePath, "/recommend/", "/circle/feed", "/daily-question"}

var (
	authEndpoints = []string{"/auth/login", "/auth/register"}
	authPages     = []string{"/login", "/register"}
)

// AuthState is the part of the session the gateway may touch.
type AuthState interface {
	// Reset clears the identity and marks the session initialized.
	Reset()
}

// Messages are the notice texts used when the server sent no usable message.
type Messages struct {
	Network      string
	Unauthorized string
	BadRequest   string
	Forbidden    string
	NotFound     string
	Failed       string
}

// DefaultMessages returns the built-in notice texts.
func DefaultMessages() Messages {
	return Messages{
		Network:      "Network error, please try again later",
		Unauthorized: "Please log in first",
		BadRequest:   "The request was invalid",
		Forbidden:    "You do not have permission to do that",
		NotFound:     "The requested resource does not exist",
		Failed:       "Request failed",
	}
}

// Options configures the gateway behavior.
type Options struct {
	Timeout          time.Duration // Per-attempt timeout (default: 30s)
	Backoff          utils.Backoff // Retry schedule for connection failures
	SilentPaths      []string      // Path substrings whose connection failures stay silent
	EnableCircuit    bool          // Wrap each attempt in a circuit breaker (default: false)
	CircuitThreshold uint32        // Consecutive failures that open the breaker (default: 5)
	Transport        http.RoundTripper
	Jar              http.CookieJar
	Sleep            internal.Sleeper
	Logger           log.Logger
	Notifier         notice.Notifier
	Auth             AuthState
	Metrics          *Metrics
	Messages         Messages
}

// Option is a functional option for configuring the gateway.
type Option func(*Options)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithRetry sets the maximum number of retries after the first attempt.
func WithRetry(maxRetries int) Option {
	return func(o *Options) {
		o.Backoff.MaxRetries = maxRetries
	}
}

// WithBackoff replaces the whole retry schedule.
func WithBackoff(b utils.Backoff) Option {
	return func(o *Options) {
		o.Backoff = b
	}
}

// WithSilentPaths replaces the silent-retry allowlist.
func WithSilentPaths(paths ...string) Option {
	return func(o *Options) {
		o.SilentPaths = paths
	}
}

// WithCircuitBreaker enables the breaker, opening after threshold consecutive connection failures.
func WithCircuitBreaker(threshold uint32) Option {
	return func(o *Options) {
		o.EnableCircuit = true
		if threshold > 0 {
			o.CircuitThreshold = threshold
		}
	}
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.Transport = rt
	}
}

// WithCookieJar replaces the in-memory cookie jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *Options) {
		o.Jar = jar
	}
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Options) {
		o.Sleep = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithNotifier sets where user-visible notices go.
func WithNotifier(n notice.Notifier) Option {
	return func(o *Options) {
		o.Notifier = n
	}
}

// WithAuthState connects the gateway to the session it may reset.
func WithAuthState(a AuthState) Option {
	return func(o *Options) {
		o.Auth = a
	}
}

// WithMetrics sets the metrics instruments.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithMessages overrides the fallback notice texts.
func WithMessages(m Messages) Option {
	return func(o *Options) {
		o.Messages = m
	}
}

// Gateway sends requests to the backend API.
type Gateway struct {
	base   *url.URL
	client *http.Client
	opts   Options
	logger log.Logger
}

// New creates a gateway for the backend at backendURL. Requests go to backendURL + "/api".
func New(backendURL string, opts ...Option) (*Gateway, error) {
	options := Options{
		Timeout:          30 * time.Second,
		Backoff:          utils.DefaultBackoff(),
		SilentPaths:      DefaultSilentPaths,
		CircuitThreshold: 5,
		Transport:        http.DefaultTransport,
		Logger:           log.Nop(),
		Notifier:         notice.Discard(),
		Messages:         DefaultMessages(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	base, err := apiBase(backendURL)
	if err != nil {
		return nil, err
	}

	if options.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		options.Jar = jar
	}
	if options.Logger == nil {
		options.Logger = log.Nop()
	}
	if options.Notifier == nil {
		options.Notifier = notice.Discard()
	}

	g := &Gateway{
		base:   base,
		opts:   options,
		logger: options.Logger.With("component", "gateway"),
	}

	var cb *gobreaker.CircuitBreaker
	if options.EnableCircuit {
		threshold := options.CircuitThreshold
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "barcircle-api",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}

	g.client = &http.Client{
		Jar: options.Jar,
		Transport: internal.NewRetryTransport(options.Transport, internal.Config{
			Backoff:        options.Backoff,
			AttemptTimeout: options.Timeout,
			Sleep:          options.Sleep,
			Breaker:        cb,
			OnRetry:        g.onRetry,
		}),
	}
	return g, nil
}

func apiBase(backendURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(backendURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", backendURL)
	}
	if !strings.HasSuffix(u.Path, "/api") {
		u.Path += "/api"
	}
	return u, nil
}

// BaseURL returns the API root every request path is joined to.
func (g *Gateway) BaseURL() string {
	return g.base.String()
}

// Cookies returns the cookies the jar would send to the API.
func (g *Gateway) Cookies() []*http.Cookie {
	return g.opts.Jar.Cookies(g.base)
}

// SetCookies stores cookies for the API host, e.g. to restore a saved session.
func (g *Gateway) SetCookies(cookies []*http.Cookie) {
	g.opts.Jar.SetCookies(g.base, cookies)
}

func (g *Gateway) onRetry(req *http.Request, failed, next internal.Attempt, err error) {
	g.opts.Metrics.retried(req.Context(), req.Method)
	g.logger.Warn("connection failed, retrying",
		"method", req.Method,
		"path", strings.TrimPrefix(req.URL.Path, g.base.Path),
		"attempt", failed.Number,
		"next_attempt", next.Number,
		"delay", next.Delay,
		"error", err,
	)
}

type pageKey struct{}

// WithPage records the page the caller is on; 401s while on an auth page stay silent.
func WithPage(ctx context.Context, page string) context.Context {
	return context.WithValue(ctx, pageKey{}, page)
}

// PageFrom returns the page recorded by WithPage, falling back to the request metadata.
func PageFrom(ctx context.Context) string {
	if page, ok := ctx.Value(pageKey{}).(string); ok {
		return page
	}
	if meta, ok := identity.MetaFrom(ctx); ok {
		return meta.Page
	}
	return ""
}
