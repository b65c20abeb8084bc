// Package version exposes the agent's build-time version, following the
// teacher's version package (set via -X linker flags at release build
// time).
package version

import (
	"fmt"

	ver "github.com/hashicorp/go-version"
)

var (
	// Set to the content of a CURRENT_VERSION file at link-time with -X.
	rawReleaseVersion = "0.0.0"

	releaseVersion = ver.Must(ver.NewSemver(rawReleaseVersion))

	// Set at link-time with -X.
	gitVersion = "unknown"
)

func ReleaseVersion() *ver.Version {
	return releaseVersion
}

// GitVersion is the git SHA this binary was built from.
func GitVersion() string {
	return gitVersion
}

func DisplayString() string {
	return fmt.Sprintf("%s (%s)", releaseVersion.String(), gitVersion)
}
