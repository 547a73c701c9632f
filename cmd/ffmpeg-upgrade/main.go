// Command ffmpeg-upgrade replaces the FFmpeg source tree of the JNI build with
// a release tarball and rebuilds it.
package main

import "github.com/oshokin/ffmpeg-upgrade/cmd/ffmpeg-upgrade/cmd"

func main() {
	cmd.Execute()
}
