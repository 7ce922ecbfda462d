// Package version holds build metadata, overridden with -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

// Build metadata.
var (
	Version   = "v0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "barcircle version v0.1.0 (commit abc123, built 2026-01-01T00:00:00Z)".
func String() string {
	return fmt.Sprintf("barcircle version %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// Full adds the Go runtime to String.
func Full() string {
	return fmt.Sprintf("%s\ngo version %s (%s/%s)", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
