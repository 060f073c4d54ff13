// Package version exposes build metadata, overridden at build time via
// -ldflags "-X github.com/verdantlabs/leafsight/internal/version.Version=...".
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // fallback when not injected
	GoVersion = runtime.Version()
)
