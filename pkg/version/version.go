// Package version provides build version information for codescope.
package version

// Version is the semantic version of the build.
// Overridden at build time via -ldflags "-X ...".
var Version = "0.3.0"

// Commit is the VCS revision the binary was built from.
var Commit = "dev"
