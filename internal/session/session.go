// Package session holds the process-wide client session and bootstraps it with a
// single in-flight probe.
//
// A Store moves NotStarted -> Fetching -> Resolved. Concurrent Load calls while
// a probe is running wait on its completion signal instead of issuing another,
// bounded by MaxWait and their own context.
package session

import (
	"context"
	"sync"
	"time"

	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
)

// DefaultMaxWait bounds how long a Load waits for a probe started by another caller.
const DefaultMaxWait = 2 * time.Second

// Snapshot is a copy of the session at one point in time.
type Snapshot struct {
	User        *identity.User `json:"user,omitempty"`
	Role        identity.Role  `json:"role"`
	Initialized bool           `json:"initialized"`
	Loading     bool           `json:"loading"`
}

// Authenticated reports whether an identity is cached.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// FetchFunc retrieves the current identity from the backend.
type FetchFunc func(ctx context.Context) (*identity.User, error)

// Options configures a Store.
type Options struct {
	MaxWait time.Duration // Bound on waiting for another caller's probe (default: 2s)
	Logger  log.Logger
}

// Store is the single owner of session state. It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	user        *identity.User
	role        identity.Role
	initialized bool
	inflight    chan struct{}

	maxWait time.Duration
	logger  log.Logger
}

// New creates an empty, uninitialized store.
func New(opts Options) *Store {
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Store{
		role:    identity.RoleNone,
		maxWait: opts.MaxWait,
		logger:  opts.Logger.With("component", "session"),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Role:        s.role,
		Initialized: s.initialized,
		Loading:     s.inflight != nil,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Reset clears the identity and marks the session initialized.
// The gateway calls it when the probe answers 401.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.logger.Info("session cleared", "user_id", s.user.ID)
	}
	s.user = nil
	s.role = identity.RoleNone
	s.initialized = true
}

// SetUser caches u as the current identity, e.g. from a login response.
func (s *Store) SetUser(u *identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(u)
	s.initialized = true
}

// ClearIdentity drops the cached identity without changing Initialized.
func (s *Store) ClearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.role = identity.RoleNone
}

func (s *Store) setLocked(u *identity.User) {
	if u == nil {
		s.user = nil
		s.role = identity.RoleNone
		return
	}
	c := *u
	s.user = &c
	s.role = identity.RoleOf(&c)
}

// Load makes sure the session is resolved.
//
// Without force, an initialized store returns immediately. Otherwise the first
// caller runs fetch; callers arriving while it runs wait for the same probe, at
// most MaxWait, and then return whatever state exists. Settlement always marks
// the store initialized. A 401 clears the identity; any other failure keeps the
// cached one. The probe error is returned to the caller that ran it.
func (s *Store) Load(ctx context.Context, fetch FetchFunc, force bool) (Snapshot, error) {
	s.mu.Lock()
	if !force && s.initialized && s.inflight == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if wait := s.inflight; wait != nil {
		s.mu.Unlock()
		return s.wait(ctx, wait)
	}
	done := make(chan struct{})
	s.inflight = done
	s.mu.Unlock()

	user, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err == nil:
		s.setLocked(user)
	case errors.IsUnauthenticated(err):
		s.setLocked(nil)
	default:
		s.logger.Warn("session probe failed, keeping cached identity",
			"error", err, "cached", s.user != nil)
	}
	s.initialized = true
	s.inflight = nil
	close(done)

	return s.snapshotLocked(), err
}

func (s *Store) wait(ctx context.Context, done <-chan struct{}) (Snapshot, error) {
	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.logger.Warn("gave up waiting for session probe", "max_wait", s.maxWait)
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
	return s.Snapshot(), nil
}
