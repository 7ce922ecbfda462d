package main

import (
	"github.com/spf13/cobra"
	"go.barcircle.dev/web/internal/guard"
	"golang.org/x/sync/errgroup"
)

func newNavCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "nav PATH...",
		Short: "Evaluate navigation targets through the guard",
		Long: `nav evaluates every PATH concurrently, the way simultaneous page loads would.
All evaluations share one session bootstrap, so the backend sees a single probe.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newCLIApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.maybeSignIn(cmd.Context(), creds); err != nil {
				return err
			}

			decisions := make([]guard.Decision, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, target := range args {
				g.Go(func() error {
					d, err := a.guard.Evaluate(ctx, target)
					decisions[i] = d
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, d := range decisions {
				switch d.Action {
				case guard.ActionRedirect:
					a.console.Result(d, "%s -> %s (%s)", args[i], d.Target, d.Reason)
				case guard.ActionNotFound:
					a.console.Result(d, "%s -> not found", args[i])
				default:
					a.console.Result(d, "%s -> %s", args[i], d.Route.Name)
				}
			}
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}
