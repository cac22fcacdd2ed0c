// Package version reports the nodegen build version. The version is stamped
// into the header of every generated file.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via ldflags by GoReleaser
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("nodegen %s (commit: %s, built: %s) %s",
		Short(), Commit, Date, runtime.Version())
}

// Short returns just the version string. Binaries built with go install or
// go run carry no ldflags and fall back to the module version.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}
