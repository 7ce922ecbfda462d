package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [KEY]",
		Short: "Show the effective configuration",
		Long: `Without KEY, config prints the bound configuration including defaults.
With KEY (e.g. BACKEND_URL), it prints the raw value from the highest-priority source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mgr, _, err := loadConfig(cmd, opts, "warn")
			if err != nil {
				return err
			}
			console := newConsole(cmd, opts)

			if len(args) == 1 {
				key := strings.ToUpper(args[0])
				value, ok := mgr.Value(key)
				if !ok {
					return fmt.Errorf("%s is not set by any source", key)
				}
				console.Info("%s=%s", key, value)
				return nil
			}

			console.Result(cfg, "%d keys set explicitly", len(mgr.Snapshot()))
			return nil
		},
	}
}
