// Package archive unpacks FFmpeg release tarballs (tar + bzip2).
package archive
