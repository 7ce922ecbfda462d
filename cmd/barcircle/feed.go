package main

import (
	"github.com/spf13/cobra"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/internal/client"
)

func newFeedCmd(opts *rootOptions) *cobra.Command {
	creds := &credentialFlags{}
	var page client.Page
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List recommended posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newCLIApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.maybeSignIn(cmd.Context(), creds); err != nil {
				return err
			}

			res, err := a.api.Recommend.Posts(cmd.Context(), page)
			if errors.IsCode(err, errors.CodeConnection) {
				// Connection failures on this path raise no notice.
				a.console.Warning("recommendations unavailable: %v", err)
				return nil
			}
			if err != nil {
				return err
			}
			a.console.Result(res.Records, "%d of %d posts", len(res.Records), res.Total)
			return nil
		},
	}
	creds.register(cmd)
	cmd.Flags().IntVar(&page.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&page.Size, "size", 10, "Page size")
	return cmd
}
