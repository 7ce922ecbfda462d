package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/internal/client"
)

// PasswordEnv is read when --password is not given.
const PasswordEnv = "BARCIRCLE_PASSWORD"

type credentialFlags struct {
	username string
	password string
}

func (c *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.username, "username", "u", "", "Sign in as this user first")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "Password (default $"+PasswordEnv+")")
}

func (c *credentialFlags) credentials() (client.Credentials, bool) {
	if c.username == "" {
		return client.Credentials{}, false
	}
	password := c.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	return client.Credentials{Username: c.username, Password: password}, true
}

// signIn logs in and caches the identity in the session store.
func (a *app) signIn(ctx context.Context, creds client.Credentials) error {
	if creds.Password == "" {
		return fmt.Errorf("password is required: use --password or $%s", PasswordEnv)
	}
	u, err := a.api.Auth.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if u != nil {
		a.store.SetUser(u)
		return nil
	}
	if _, err := a.guard.Refresh(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	return nil
}

// maybeSignIn signs in when credentials were given.
func (a *app) maybeSignIn(ctx context.Context, c *credentialFlags) error {
	creds, ok := c.credentials()
	if !ok {
		return nil
	}
	return a.signIn(ctx, creds)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ok := creds.credentials()
			if !ok {
				return fmt.Errorf("--username is required")
			}
			a, err := newCLIApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.signIn(cmd.Context(), c); err != nil {
				return err
			}
			snap := a.store.Snapshot()
			if snap.User == nil {
				a.console.Warning("signed in, but the backend returned no identity")
				return nil
			}
			a.console.Success("signed in as %s (%s)", snap.User.Username, snap.Role)
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newCLIApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.maybeSignIn(cmd.Context(), creds); err != nil {
				return err
			}
			if err := a.api.Auth.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			a.store.Reset()
			a.console.Success("signed out")
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the backend reports for this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newCLIApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.maybeSignIn(cmd.Context(), creds); err != nil {
				return err
			}
			snap, err := a.guard.Refresh(cmd.Context())
			if err != nil && !errors.IsUnauthenticated(err) {
				return fmt.Errorf("session probe: %w", err)
			}
			if snap.User == nil {
				a.console.Info("not signed in")
				return nil
			}
			a.console.Result(snap.User, "signed in as %s (%s)", snap.User.Username, snap.Role)
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}
