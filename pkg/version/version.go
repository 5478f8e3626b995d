package version

// Version is the app-global version string, which should be substituted with a
// real value during build, e.g -ldflags "-X .../pkg/version.Version=1.0.0"
var Version = "UNKNOWN"

// AppName is a name of a service. Used as a service scope of remote config params
var AppName = "ledger-accounting"

// GitHash injected build time
var GitHash = "TBD"

// GitRef injected build time
var GitRef = "TBD"
