// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Plst4 is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Plst4 = "plst4"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is sent with every HTTP request made to the plst4 server.
	UserAgent = Plst4 + "-cli/" + Version
)

// Build metadata, overridden at link time with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
