// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Shortplay is the canonical application identifier used for filesystem paths and CLI branding.
	Shortplay = "shortplay"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// MinBackendVersion is the oldest backend release this client speaks to.
	MinBackendVersion = "1.0.0"

	// UserAgent is sent with every backend request.
	UserAgent = Shortplay + "/" + Version
)

// Build metadata, overridden with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
