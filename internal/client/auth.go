package client

import (
	"context"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/core/identity"
)

// AuthAPI covers sign-in, sign-up and the session probe.
type AuthAPI struct {
	gw *clientx.Gateway
}

// authPayload accepts both a bare user and {"user": {...}}.
type authPayload struct {
	identity.User
	Nested *identity.User `json:"user"`
}

func (p authPayload) user() *identity.User {
	if p.Nested != nil {
		return p.Nested
	}
	if p.ID != 0 || p.Username != "" {
		u := p.User
		return &u
	}
	return nil
}

// Login signs in. The session cookie lands in the gateway's jar; the returned
// user is nil when the backend does not echo it.
func (a *AuthAPI) Login(ctx context.Context, c Credentials) (*identity.User, error) {
	p, err := do[authPayload](ctx, a.gw, clientx.Post("/auth/login", c))
	if err != nil {
		return nil, err
	}
	return p.user(), nil
}

// Register creates an account.
func (a *AuthAPI) Register(ctx context.Context, r Registration) (*identity.User, error) {
	p, err := do[authPayload](ctx, a.gw, clientx.Post("/auth/register", r))
	if err != nil {
		return nil, err
	}
	return p.user(), nil
}

// Me is the session probe. A 401 here resets the session through the gateway.
// It satisfies session.FetchFunc.
func (a *AuthAPI) Me(ctx context.Context) (*identity.User, error) {
	u, err := do[*identity.User](ctx, a.gw, clientx.Get(clientx.ProbePath, nil))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Logout ends the backend session.
func (a *AuthAPI) Logout(ctx context.Context) error {
	return exec(ctx, a.gw, clientx.Post("/auth/logout", nil))
}
