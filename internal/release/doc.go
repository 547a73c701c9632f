// Package release derives tarball, directory and URL names for an FFmpeg release.
package release
