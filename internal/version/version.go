// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Name is the binary and product name.
const Name = "rehearse"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the full version line printed by `rehearse version`.
func String() string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s, go=%s)", Name, Version, Commit, Date, runtime.Version())
}

// UserAgent identifies outbound API requests.
func UserAgent() string {
	return Name + "/" + Version
}
