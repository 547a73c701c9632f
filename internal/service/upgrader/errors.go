package upgrader

import (
	"errors"
	"fmt"
)

const (
	// FailureExitCode is returned for every failure without a more specific status.
	FailureExitCode = 1
	// UsageExitCode is returned when the command line is invalid.
	UsageExitCode = 2
)

// Error kinds. Every error returned by Run matches exactly one of them with errors.Is.
var (
	// ErrUsage reports invalid input, such as an empty version.
	ErrUsage = errors.New("usage error")
	// ErrDownload reports a failed tarball download.
	ErrDownload = errors.New("download failed")
	// ErrExtract reports an unreadable tarball or an unexpected layout.
	ErrExtract = errors.New("extraction failed")
	// ErrLink reports a failure to replace the source tree symlink.
	ErrLink = errors.New("linking failed")
	// ErrBuild reports a failed or non-zero exit of the rebuild script.
	ErrBuild = errors.New("build failed")
)

var (
	errNilOptions       = errors.New("options are not set")
	errMissingSourceDir = errors.New("tarball did not create the expected source directory")
	errSourceNotDir     = errors.New("expected source path is not a directory")
)

// BuildError carries the outcome of a failed rebuild script run.
type BuildError struct {
	// ExitCode is the status of the script, or FailureExitCode when it did not exit normally.
	ExitCode int
	// LogPath is the log file the script writes.
	LogPath string
	// Err is the underlying error when the script could not be run or was killed.
	Err error
}

// Error implements error.
func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s with exit code %d, see %s", ErrBuild, e.ExitCode, e.LogPath)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap exposes ErrBuild and the underlying error to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBuild, e.Err}
	}

	return []error{ErrBuild}
}

// ExitCode maps an error returned by Run to a process exit status.
// A failed build propagates the script's own status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var buildErr *BuildError
	if errors.As(err, &buildErr) && buildErr.ExitCode > 0 {
		return buildErr.ExitCode
	}

	if errors.Is(err, ErrUsage) {
		return UsageExitCode
	}

	return FailureExitCode
}
