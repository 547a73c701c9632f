// Package upgrader replaces the FFmpeg source tree used by the JNI build and
// runs the rebuild script.
//
// A run downloads ffmpeg-<version>.tar.bz2 unless it is already present,
// removes the previous source directory and link, unpacks the tarball, links
// ffmpeg/JNI/ffmpeg to the absolute path of the new tree and runs
// rebuild-ffmpeg.sh inside ffmpeg/JNI. Steps run in order and the first
// failure ends the run; nothing is rolled back.
package upgrader
