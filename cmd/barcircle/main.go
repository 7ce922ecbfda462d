// Package main provides the barcircle command-line entry point.
//
// Overview:
//   - Responsibility: Parse commands, load configuration, wire the gateway,
//     session store, guard and shell server
//   - Key Types: Cobra command tree built by newRootCmd
//   - Concurrency Model: serve runs until interrupted; other commands run once
//   - Error Semantics: Command errors are printed and exit with status 1
//   - Performance Notes: One backend session per process, held in memory
//
// Usage:
//
//	barcircle serve --config barcircle.yaml
//	barcircle nav /user/profile /seller --username alice --password secret
//	barcircle feed --size 5
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.barcircle.dev/web/internal/version"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
	verbose    bool
	json       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "barcircle",
		Short: "barcircle web shell and API client",
		Long: `barcircle talks to the barcircle backend the way the web client does.

Commands share one in-memory session: the backend's session cookie lives only
for the lifetime of the process. Pass --username and --password to commands
that need a signed-in identity.

Configuration is read from --config (YAML), then .env, then BARCIRCLE_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.verbose, "verbose", "V", false, "Enable verbose output")
	flags.BoolVar(&opts.json, "json", false, "Output in JSON format")

	cmd.AddCommand(
		newServeCmd(opts),
		newNavCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newFeedCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
