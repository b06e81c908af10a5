// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/mheir/blogsmith/internal/version.Version=v1.2.3".
package version

// Version is the current blogsmith version.
var Version = "dev"
