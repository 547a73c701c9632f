package version

import (
	"fmt"
	"runtime"
)

// Stamped by the release build; the defaults identify a local build.
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns the upgrader version alone, e.g. "0.1.0".
func Short() string {
	return Version
}

// Full is what `ffmpeg-upgrade version` prints. The platform is included
// because the rebuild script compiles FFmpeg for the host it runs on.
func Full() string {
	return fmt.Sprintf("ffmpeg-upgrade %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
