// Package version reports which ffmpeg-upgrade binary is running.
//
// It describes the upgrader itself, never the FFmpeg release it installs.
// Release builds stamp Version, Commit and BuildTime with -ldflags "-X ...".
package version
