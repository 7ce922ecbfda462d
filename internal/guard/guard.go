// Package guard decides whether a navigation may proceed.
//
// Evaluate bootstraps the session on first use (one probe no matter how many
// navigations arrive together) and then applies the admission rule of the
// target route: public routes are admitted, protected routes need an identity,
// role-gated routes need the matching role.
package guard

import (
	"context"
	"net/http"

	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/internal/routes"
	"go.barcircle.dev/web/internal/session"
	"go.barcircle.dev/web/logx"
)

// Action is the outcome of an evaluation.
type Action string

const (
	ActionAdmit    Action = "admit"
	ActionRedirect Action = "redirect"
	ActionNotFound Action = "not_found"
)

// Redirect reasons.
const (
	ReasonLogin = "login"
	ReasonRole  = "role"
)

// DefaultDeniedMessage is shown when the identity lacks the route's role.
const DefaultDeniedMessage = "You do not have permission to view that page"

// Decision is the result of evaluating one navigation target.
type Decision struct {
	Action  Action            `json:"action"`
	Target  string            `json:"target"`
	Reason  string            `json:"reason,omitempty"`
	Route   *routes.Route     `json:"route,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Session session.Snapshot  `json:"session"`
}

// Options configures a Guard.
type Options struct {
	Logger        log.Logger
	Notifier      notice.Notifier
	Metrics       *Metrics
	DeniedMessage string
}

// Option is a functional option for configuring the guard.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithNotifier sets where the role-denied warning goes.
func WithNotifier(n notice.Notifier) Option {
	return func(o *Options) { o.Notifier = n }
}

// WithMetrics sets the metrics instruments.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithDeniedMessage overrides the role-denied warning text.
func WithDeniedMessage(msg string) Option {
	return func(o *Options) { o.DeniedMessage = msg }
}

// Guard evaluates navigations against a route table and a session store.
// It is safe for concurrent use.
type Guard struct {
	store  *session.Store
	table  *routes.Table
	fetch  session.FetchFunc
	opts   Options
	logger log.Logger
}

// New creates a guard. fetch is the session probe, normally a call to /auth/me.
func New(store *session.Store, table *routes.Table, fetch session.FetchFunc, opts ...Option) *Guard {
	options := Options{
		Logger:        log.Nop(),
		Notifier:      notice.Discard(),
		DeniedMessage: DefaultDeniedMessage,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = log.Nop()
	}
	if options.Notifier == nil {
		options.Notifier = notice.Discard()
	}
	return &Guard{
		store:  store,
		table:  table,
		fetch:  fetch,
		opts:   options,
		logger: options.Logger.With("component", "guard"),
	}
}

// Store returns the session store the guard reads.
func (g *Guard) Store() *session.Store {
	return g.store
}

// Evaluate decides the navigation to target, a path with optional query.
// The only error is the caller's context ending while the session bootstraps.
func (g *Guard) Evaluate(ctx context.Context, target string) (Decision, error) {
	target = normalize(target)
	logger := logx.FromContext(ctx, g.logger).With("target", target)

	snap := g.store.Snapshot()
	if !snap.Initialized && !snap.Authenticated() {
		var err error
		snap, err = g.store.Load(ctx, g.fetch, false)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Decision{}, ctxErr
		}
		if err != nil {
			logger.Debug("session probe failed, proceeding with current state", "error", err)
		}
	}

	d := g.admit(ctx, target, snap)
	d.Session = g.store.Snapshot()
	g.opts.Metrics.evaluated(ctx, d)

	switch d.Action {
	case ActionRedirect:
		logger.Info("navigation redirected", "to", d.Target, "reason", d.Reason)
	default:
		logger.Debug("navigation evaluated", "action", string(d.Action))
	}
	return d, nil
}

func (g *Guard) admit(ctx context.Context, target string, snap session.Snapshot) Decision {
	m, ok := g.table.Resolve(target)
	if !ok {
		return Decision{Action: ActionNotFound, Target: target}
	}
	route := m.Route
	d := Decision{Action: ActionAdmit, Target: target, Route: &route, Params: m.Params}

	if !route.Protected() {
		return d
	}

	if !snap.Authenticated() {
		g.store.ClearIdentity()
		if route.Name == routes.Login {
			return d
		}
		d.Action = ActionRedirect
		d.Reason = ReasonLogin
		d.Target = routes.LoginRedirect(target)
		return d
	}

	if route.RequiresRole != "" && snap.Role != route.RequiresRole {
		g.opts.Notifier.Notify(ctx, notice.Warning(g.opts.DeniedMessage))
		d.Action = ActionRedirect
		d.Reason = ReasonRole
		d.Target = "/"
		return d
	}
	return d
}

// Refresh forces a new session probe, e.g. after login or logout.
func (g *Guard) Refresh(ctx context.Context) (session.Snapshot, error) {
	return g.store.Load(ctx, g.fetch, true)
}

func normalize(target string) string {
	if target == "" {
		return "/"
	}
	if target[0] != '/' {
		return "/" + target
	}
	return target
}

type decisionKey struct{}

// DecisionFrom returns the decision Middleware attached to the request.
func DecisionFrom(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// Middleware evaluates every request before next runs.
// Redirect decisions answer 302; admitted and unknown paths reach next with the
// decision in the request context and the signed-in user set via identity.WithUser.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := g.Evaluate(r.Context(), r.URL.RequestURI())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		if d.Action == ActionRedirect {
			http.Redirect(w, r, d.Target, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), decisionKey{}, d)
		if d.Session.User != nil {
			ctx = identity.WithUser(ctx, d.Session.User)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
