// Package misc keeps build time information about the program.
package misc

// Set with -ldflags "-X h2d/misc.version=... -X h2d/misc.gitHash=..." at build time.
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "h2d"

// GetAppName returns short program name used for logging and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git revision program was built from.
func GetGitHash() string {
	return gitHash
}
